package event

import (
	"strconv"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

// LinkClickedName is the event name carried in envelope metadata.
const LinkClickedName = "link.clicked"

// LinkClicked is raised when a short link serves a redirect. It carries the
// raw observation; normalization happens in the click recorder.
type LinkClicked struct {
	Base
	LinkID      int64                   `json:"link_id"`
	ShortCode   string                  `json:"short_code"`
	Observation domain.ClickObservation `json:"observation"`
}

// NewLinkClicked creates a new LinkClicked event.
func NewLinkClicked(linkID int64, shortCode string, obs domain.ClickObservation) LinkClicked {
	return LinkClicked{
		Base:        NewBase(strconv.FormatInt(linkID, 10)),
		LinkID:      linkID,
		ShortCode:   shortCode,
		Observation: obs,
	}
}

// EventName returns the event name.
func (e LinkClicked) EventName() string {
	return LinkClickedName
}
