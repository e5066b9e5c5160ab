package viewport

// Layout carries the presentational parameters selected by a mode.
type Layout struct {
	Columns    int    `json:"columns"`
	GapPx      int    `json:"gap_px"`
	PaddingPx  int    `json:"padding_px"`
	TitleClass string `json:"title_class"`
}

// LayoutFor returns the grid parameters for a mode.
func LayoutFor(m Mode) Layout {
	if m == ModeMobile {
		return Layout{Columns: 1, GapPx: 16, PaddingPx: 16, TitleClass: "title-compact"}
	}
	return Layout{Columns: 3, GapPx: 24, PaddingPx: 32, TitleClass: "title-wide"}
}
