package catalog

// Validate checks a record against the catalog schema before any store
// write. It is a pure function: storage technology plays no part here.
func Validate(r *Record) error {
	if r.Title == "" {
		return invalid("title", "required")
	}
	if Slugify(r.Title) == "" {
		return invalid("title", "must contain at least one alphanumeric character")
	}
	if r.Description == "" {
		return invalid("description", "required")
	}
	if r.Year <= 0 {
		return invalid("year", "required")
	}
	if !r.Category.Valid() {
		return invalid("category", "unknown category "+string(r.Category))
	}
	if len(r.Genres) == 0 {
		return invalid("genres", "at least one genre is required")
	}
	if len(r.Languages) == 0 {
		return invalid("languages", "at least one language is required")
	}
	if r.Visibility != "" && !r.Visibility.Valid() {
		return invalid("visibility", "unknown state "+string(r.Visibility))
	}

	if r.Poster() == nil {
		return invalid("images", "a poster reference is required")
	}
	for _, img := range r.Images {
		if !img.Role.Valid() {
			return invalid("images", "unknown image role "+string(img.Role))
		}
		if img.URL == "" {
			return invalid("images", "image url is required")
		}
		if img.Quality != "" && !img.Quality.Valid() {
			return invalid("images", "unknown quality tier "+string(img.Quality))
		}
	}

	if err := validateLinkSets(r.DownloadLinks); err != nil {
		return err
	}
	for _, sl := range r.StreamingLinks {
		if sl.Platform == "" || sl.URL == "" {
			return invalid("streaming_links", "platform and url are required")
		}
	}

	return nil
}

// ValidateEpisode checks an episode before it is appended to a series.
func ValidateEpisode(e *Episode) error {
	if e.EpisodeNumber <= 0 {
		return invalid("episode_number", "must be positive")
	}
	if e.SeasonNumber < 0 {
		return invalid("season_number", "must not be negative")
	}
	if e.Title == "" {
		return invalid("title", "required")
	}
	return validateLinkSets(e.DownloadLinks)
}

func validateLinkSets(groups []DownloadLinkSet) error {
	seen := make(map[Quality]bool, len(groups))
	for _, g := range groups {
		if !g.Quality.Valid() {
			return invalid("download_links", "unknown quality tier "+string(g.Quality))
		}
		if seen[g.Quality] {
			return invalid("download_links", "duplicate quality tier "+string(g.Quality))
		}
		seen[g.Quality] = true
		for _, s := range g.Servers {
			if s.Kind != "" && !s.Kind.Valid() {
				return invalid("download_links", "unknown transport kind "+string(s.Kind))
			}
		}
	}
	return nil
}
