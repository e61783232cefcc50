package types

import (
	"errors"
	"time"
)

// TripCard is the structured trip recommendation widget returned by the
// create_trip_card tool and rendered verbatim by the UI.
type TripCard struct {
	City          string    `json:"city"`
	Summary       string    `json:"summary"`
	PackingAdvice []string  `json:"packingAdvice"`
	Cautions      []string  `json:"cautions"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Validate checks the card has the shape the UI expects.
func (t *TripCard) Validate() error {
	if t.City == "" {
		return errors.New("trip card: city is required")
	}
	if t.Summary == "" {
		return errors.New("trip card: summary is required")
	}
	return nil
}

// PackingItem is a single entry of a packing list.
type PackingItem struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// PackingList is the structured packing list widget returned by the
// create_packing_list tool.
type PackingList struct {
	Items      []PackingItem `json:"items"`
	TotalItems int           `json:"totalItems"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Validate checks the list has the shape the UI expects.
func (p *PackingList) Validate() error {
	if len(p.Items) == 0 {
		return errors.New("packing list: at least one item is required")
	}
	for _, it := range p.Items {
		if it.Item == "" {
			return errors.New("packing list: item name is required")
		}
	}
	if p.TotalItems != len(p.Items) {
		return errors.New("packing list: totalItems does not match items")
	}
	return nil
}
