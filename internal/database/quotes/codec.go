package quotes

import (
	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/store"
)

// Codec maps quotes to rows of the quotes table.
type Codec struct{}

var _ store.Codec[entities.Quote, string] = Codec{}

func (Codec) Table() string                  { return "quotes" }
func (Codec) KeyColumn() string              { return "id" }
func (Codec) ID(quote entities.Quote) string { return quote.ID }

func (Codec) Encode(quote entities.Quote) store.Record {
	return store.Record{
		"id":          quote.ID,
		"book_id":     quote.BookID,
		"text":        quote.Text,
		"page_number": store.Nullable(quote.PageNumber),
		"created_at":  store.ToMillis(quote.CreatedAt),
	}
}

func (Codec) Decode(rec store.Record) (entities.Quote, error) {
	var (
		quote entities.Quote
		err   error
	)
	if quote.ID, err = store.String(rec, "id"); err != nil {
		return entities.Quote{}, err
	}
	if quote.BookID, err = store.String(rec, "book_id"); err != nil {
		return entities.Quote{}, err
	}
	if quote.Text, err = store.String(rec, "text"); err != nil {
		return entities.Quote{}, err
	}

	page, err := store.OptionalInt64(rec, "page_number")
	if err != nil {
		return entities.Quote{}, err
	}
	if page != nil {
		p := int(*page)
		quote.PageNumber = &p
	}

	if quote.CreatedAt, err = store.Millis(rec, "created_at"); err != nil {
		return entities.Quote{}, err
	}
	return quote, nil
}
