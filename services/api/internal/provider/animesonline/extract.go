package animesonline

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/example/anihub/services/api/internal/provider"
)

// Selectors coupled to the site's markup. A layout change should only touch
// the matching Find* function below.
const (
	posterCardSelector  = "div.poster a"
	episodeLinkSelector = "ul.episodios li a"
	playerFrameSelector = "iframe"
)

// FindAnimeLink returns the href of the first result card on a search page.
func FindAnimeLink(doc *goquery.Document) (string, error) {
	card := doc.Find(posterCardSelector).First()
	if card.Length() == 0 {
		return "", provider.NoSearchMatch
	}
	return hrefOf(card)
}

// FindEpisodeLink returns the href of the first episode link whose text names
// the requested episode. When nothing matches and episode is 1, the first
// listed link is used instead.
func FindEpisodeLink(doc *goquery.Document, episode int) (string, error) {
	links := doc.Find(episodeLinkSelector)
	if links.Length() == 0 {
		return "", provider.ParseFailure
	}

	var chosen *goquery.Selection
	links.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if MatchesEpisode(a.Text(), episode) {
			chosen = a
			return false
		}
		return true
	})
	// The premiere is sometimes listed without an "Episódio 1" label.
	// TODO: confirm the site lists oldest-first; newest-first ordering would make this pick the latest episode.
	if chosen == nil && episode == 1 {
		chosen = links.First()
	}
	if chosen == nil {
		return "", provider.NoEpisodeMatch
	}
	return hrefOf(chosen)
}

// MatchesEpisode reports whether link text names episode n, accepting both the
// accented and unaccented Portuguese spelling in any case.
// Matching is by substring, so "episódio 1" also matches "Episódio 10".
func MatchesEpisode(text string, n int) bool {
	text = strings.ToLower(text)
	unaccented := fmt.Sprintf("episodio %d", n)
	accented := fmt.Sprintf("episódio %d", n)
	return strings.Contains(strings.ReplaceAll(text, "ó", "o"), unaccented) ||
		strings.Contains(text, accented)
}

// FindPlayerFrame returns the src of the first iframe in document order.
func FindPlayerFrame(doc *goquery.Document) (string, error) {
	frame := doc.Find(playerFrameSelector).First()
	if frame.Length() == 0 {
		return "", provider.NoVideoFrame
	}
	src, ok := frame.Attr("src")
	src = strings.TrimSpace(src)
	if !ok || src == "" {
		return "", provider.ParseFailure
	}
	return src, nil
}

func hrefOf(s *goquery.Selection) (string, error) {
	href, ok := s.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", provider.ParseFailure
	}
	return href, nil
}
