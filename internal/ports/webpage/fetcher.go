package webpage

import "context"

// Fetcher es el puerto para traer el markup de una página. El extractor de
// señales estructuradas es puro; este puerto aísla el único I/O del camino
// de URLs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
