// Package entities defines the domain entities for the pins service.
package entities

import (
	"errors"
	"net/url"
	"time"
)

// TimeLayout - формат ISO-8601 для временных меток записей.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// identitySeparator разделяет origin и полный URL в идентификаторе страницы.
const identitySeparator = "|"

// ErrInvalidPageURL возвращается, если origin нельзя вывести из URL страницы.
var ErrInvalidPageURL = errors.New("invalid page url")

// Page описывает страницу, на которой размещаются заметки.
type Page struct {
	Origin string `json:"origin"`
	URL    string `json:"url"`
	Body   string `json:"body"`
}

// Identity возвращает ключ записи страницы: origin + "|" + полный URL.
func (p Page) Identity() string {
	return p.Origin + identitySeparator + p.URL
}

// Normalize заполняет Origin из URL, если он не задан.
func (p Page) Normalize() (Page, error) {
	if p.Origin != "" {
		return p, nil
	}
	u, err := url.Parse(p.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return p, ErrInvalidPageURL
	}
	p.Origin = u.Scheme + "://" + u.Host
	return p, nil
}

// PageRecord хранит все аннотации одной страницы.
type PageRecord struct {
	ID          string        `json:"id"`
	Origin      string        `json:"origin"`
	PageURL     string        `json:"pageUrl"`
	PageHash    string        `json:"pageHash"`
	Annotations []*Annotation `json:"annotations"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt,omitempty"`
}

// NewPageRecord создает пустую запись для страницы.
func NewPageRecord(page Page, pageHash string, now time.Time) *PageRecord {
	return &PageRecord{
		ID:          page.Identity(),
		Origin:      page.Origin,
		PageURL:     page.URL,
		PageHash:    pageHash,
		Annotations: make([]*Annotation, 0),
		CreatedAt:   FormatTime(now),
	}
}

// Touch выставляет updatedAt.
func (r *PageRecord) Touch(now time.Time) {
	r.UpdatedAt = FormatTime(now)
}

// Find возвращает аннотацию по ID или nil.
func (r *PageRecord) Find(id string) *Annotation {
	for _, ann := range r.Annotations {
		if ann.ID == id {
			return ann
		}
	}
	return nil
}

// Remove удаляет аннотацию по ID и сообщает, была ли она найдена.
func (r *PageRecord) Remove(id string) bool {
	kept := make([]*Annotation, 0, len(r.Annotations))
	for _, ann := range r.Annotations {
		if ann.ID != id {
			kept = append(kept, ann)
		}
	}
	removed := len(kept) != len(r.Annotations)
	if removed {
		r.Annotations = kept
	}
	return removed
}

// Pins возвращает аннотации типа pin в порядке создания.
func (r *PageRecord) Pins() []*Annotation {
	pins := make([]*Annotation, 0, len(r.Annotations))
	for _, ann := range r.Annotations {
		if ann.Type == TypePin {
			pins = append(pins, ann)
		}
	}
	return pins
}

// Clone возвращает глубокую копию записи.
func (r *PageRecord) Clone() *PageRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Annotations = make([]*Annotation, len(r.Annotations))
	for i, ann := range r.Annotations {
		a := *ann
		cp.Annotations[i] = &a
	}
	return &cp
}

// FormatTime форматирует время в UTC ISO-8601 с миллисекундами.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
