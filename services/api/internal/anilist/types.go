package anilist

type Title struct {
	Romaji string `json:"romaji"`
}

type CoverImage struct {
	ExtraLarge string `json:"extraLarge,omitempty"`
	Large      string `json:"large,omitempty"`
	Medium     string `json:"medium,omitempty"`
}

// Media is one showcase entry on the home page.
type Media struct {
	ID          int        `json:"id"`
	Title       Title      `json:"title"`
	CoverImage  CoverImage `json:"coverImage"`
	BannerImage string     `json:"bannerImage,omitempty"`
	Description string     `json:"description,omitempty"`
}

type Section struct {
	Media []Media `json:"media"`
}

// Home holds the six showcase sections.
type Home struct {
	Trending Section `json:"trending"`
	Popular  Section `json:"popular"`
	Action   Section `json:"action"`
	Romance  Section `json:"romance"`
	Horror   Section `json:"horror"`
	Sports   Section `json:"sports"`
}

// EmptyHome is served when the catalog is unavailable; every section is an
// empty list rather than null.
func EmptyHome() Home {
	return Home{
		Trending: Section{Media: []Media{}},
		Popular:  Section{Media: []Media{}},
		Action:   Section{Media: []Media{}},
		Romance:  Section{Media: []Media{}},
		Horror:   Section{Media: []Media{}},
		Sports:   Section{Media: []Media{}},
	}
}

func (h *Home) normalize() {
	for _, s := range []*Section{&h.Trending, &h.Popular, &h.Action, &h.Romance, &h.Horror, &h.Sports} {
		if s.Media == nil {
			s.Media = []Media{}
		}
	}
}

// Anime is the detail view shown on the player page.
type Anime struct {
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	Banner      string `json:"banner,omitempty"`
	Description string `json:"description"`
	Score       *int   `json:"score"`
	Episodes    *int   `json:"episodes"`
	Status      string `json:"status"`
	Format      string `json:"format"`
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Title      Title      `json:"title"`
	CoverImage CoverImage `json:"coverImage"`
	Format     string     `json:"format"`
}

type mediaDetail struct {
	Title        Title      `json:"title"`
	CoverImage   CoverImage `json:"coverImage"`
	BannerImage  string     `json:"bannerImage"`
	Description  string     `json:"description"`
	AverageScore *int       `json:"averageScore"`
	Episodes     *int       `json:"episodes"`
	Status       string     `json:"status"`
	Format       string     `json:"format"`
}

func (m mediaDetail) toAnime() Anime {
	return Anime{
		Title:       m.Title.Romaji,
		Cover:       m.CoverImage.ExtraLarge,
		Banner:      m.BannerImage,
		Description: m.Description,
		Score:       m.AverageScore,
		Episodes:    m.Episodes,
		Status:      m.Status,
		Format:      m.Format,
	}
}
