package pages

import "strings"

// Clasificación por substring de hostname. Sesga el framing del prompt
// (esperar uno vs. muchos eventos); solo los dominios que bloquean scraping
// cortan la extracción.

// Dominios que activamente bloquean fetching automatizado.
var blockedDomains = []string{
	"facebook.com", "instagram.com", "twitter.com", "linkedin.com",
}

// Sitios de listados de eventos: probablemente contienen varios eventos.
var eventListingDomains = []string{
	"lu.ma", "luma.com", "eventbrite.com", "meetup.com", "facebook.com/events",
	"evite.com", "ticketmaster.com", "splashthat.com", "hopin.com", "airmeet.com",
	"airtable.com", "universe.com", "dice.fm", "tito.io", "eventscase.com",
	"event.is", "event.com", "events.", ".events.", "conf", "conference",
	"summit", "meetup", "webinar", "agenda",
}

// IsBlockedDomain reporta si el hostname pertenece a un sitio que bloquea
// scrapers; para estos se devuelve directamente un evento placeholder.
func IsBlockedDomain(hostname string) bool {
	return matchesAny(hostname, blockedDomains)
}

// IsEventListingDomain reporta si el hostname parece un sitio de listados.
func IsEventListingDomain(hostname string) bool {
	return matchesAny(hostname, eventListingDomains)
}

func matchesAny(hostname string, domains []string) bool {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return false
	}
	for _, d := range domains {
		if strings.Contains(hostname, d) {
			return true
		}
	}
	return false
}
