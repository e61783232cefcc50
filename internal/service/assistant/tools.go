package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tripmate/tripmate-backend/internal/ai/anthropic"
	"github.com/tripmate/tripmate-backend/internal/types"
)

// weatherInput is the parsed input for the weather tool.
type weatherInput struct {
	Location string `json:"location"`
}

// tripCardInput is the parsed input for the create_trip_card tool.
type tripCardInput struct {
	City          string   `json:"city"`
	Summary       string   `json:"summary"`
	PackingAdvice []string `json:"packingAdvice"`
	Cautions      []string `json:"cautions"`
}

// packingListInput is the parsed input for the create_packing_list tool.
type packingListInput struct {
	Items []types.PackingItem `json:"items"`
}

// tools returns the three tool definitions offered on every model turn.
func (s *Service) tools() []anthropic.Tool {
	return []anthropic.Tool{
		{
			Name:        "weather",
			Description: "Get weather for a city (°C) with short forecast",
			Properties: map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": `City name, e.g., "Lagos"`,
				},
			},
			Required: []string{"location"},
			Execute:  s.executeWeather,
		},
		{
			Name:        "create_trip_card",
			Description: "Create a structured trip recommendation card with packing advice and cautions",
			Properties: map[string]any{
				"city": map[string]any{
					"type":        "string",
					"description": "Destination city name.",
				},
				"summary": map[string]any{
					"type":        "string",
					"description": "Short summary of the trip recommendation.",
				},
				"packingAdvice": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Packing advice entries.",
				},
				"cautions": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Safety or practical cautions.",
				},
			},
			Required: []string{"city", "summary", "packingAdvice", "cautions"},
			Execute:  s.executeTripCard,
		},
		{
			Name:        "create_packing_list",
			Description: "Create a detailed packing list with reasons for each item",
			Properties: map[string]any{
				"items": map[string]any{
					"type":        "array",
					"description": "Array of packing items with reasons",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"item":   map[string]any{"type": "string"},
							"reason": map[string]any{"type": "string"},
						},
						"required": []string{"item", "reason"},
					},
				},
			},
			Required: []string{"items"},
			Execute:  s.executePackingList,
		},
	}
}

// executeWeather looks up weather via the collaborator. A lookup failure is
// returned as a structured error value, not an error: the turn continues and
// the model explains the failure to the user.
func (s *Service) executeWeather(ctx context.Context, input json.RawMessage) (any, error) {
	var in weatherInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("unmarshal weather input: %w", err)
	}

	report, err := s.weather.Fetch(ctx, in.Location)
	if err != nil {
		s.logger.WithError(err).WithField("location", in.Location).Warn("weather fetch failed")
		return map[string]string{"error": "Failed to fetch weather data"}, nil
	}
	return report, nil
}

// executeTripCard shapes the model-provided fields into a TripCard and
// stamps the current time.
func (s *Service) executeTripCard(_ context.Context, input json.RawMessage) (any, error) {
	var in tripCardInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("unmarshal trip card input: %w", err)
	}

	card := &types.TripCard{
		City:          in.City,
		Summary:       in.Summary,
		PackingAdvice: in.PackingAdvice,
		Cautions:      in.Cautions,
		CreatedAt:     s.now(),
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

// executePackingList shapes the model-provided items into a PackingList and
// stamps the item count and current time.
func (s *Service) executePackingList(_ context.Context, input json.RawMessage) (any, error) {
	var in packingListInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("unmarshal packing list input: %w", err)
	}

	list := &types.PackingList{
		Items:      in.Items,
		TotalItems: len(in.Items),
		CreatedAt:  s.now(),
	}
	if err := list.Validate(); err != nil {
		return nil, err
	}
	return list, nil
}
