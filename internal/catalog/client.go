// Package catalog talks to the external card catalog/identification service.
// The core treats every field of a returned card as optional and never
// rejects a payload for missing data.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/codyseavey/pokebinder/backend/internal/metrics"
	"github.com/codyseavey/pokebinder/backend/internal/models"
)

const defaultBaseURL = "https://api.pokemontcg.io/v2"

// Client is the catalog surface the valuation engine depends on. GetCard
// returns (nil, nil) when the card does not exist.
type Client interface {
	GetCard(ctx context.Context, id string) (*models.Card, error)
	SearchCards(ctx context.Context, query string) ([]models.Card, error)
}

// HTTPClient is the live implementation. Requests are rate limited client
// side; the public API throttles aggressively without a key.
type HTTPClient struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	apiKey  string
}

func NewHTTPClient(apiKey string) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second/2), 5),
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
	}
}

type apiCard struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	HP          string          `json:"hp"`
	Rarity      string          `json:"rarity"`
	Types       json.RawMessage `json:"types"`
	Subtypes    json.RawMessage `json:"subtypes"`
	Attacks     json.RawMessage `json:"attacks"`
	Abilities   json.RawMessage `json:"abilities"`
	Weaknesses  json.RawMessage `json:"weaknesses"`
	Resistances json.RawMessage `json:"resistances"`
	RetreatCost json.RawMessage `json:"retreatCost"`
	Artist      string          `json:"artist"`
	FlavorText  string          `json:"flavorText"`
	Number      string          `json:"number"`
	Set         apiSet          `json:"set"`
	Images      apiImages       `json:"images"`
	TCGPlayer   *apiVendor      `json:"tcgplayer"`
	Cardmarket  *apiVendor      `json:"cardmarket"`
}

type apiSet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Series      string `json:"series"`
	ReleaseDate string `json:"releaseDate"`
	Images      struct {
		Logo string `json:"logo"`
	} `json:"images"`
}

type apiImages struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

type apiVendor struct {
	URL    string          `json:"url"`
	Prices json.RawMessage `json:"prices"`
}

// GetCard fetches one card by catalog id, including both vendor price
// payloads in raw form.
func (c *HTTPClient) GetCard(ctx context.Context, id string) (*models.Card, error) {
	var response struct {
		Data apiCard `json:"data"`
	}
	status, err := c.get(ctx, fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(id)), &response)
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if status == http.StatusNotFound {
		metrics.CatalogRequestsTotal.WithLabelValues("not_found").Inc()
		return nil, nil
	}

	metrics.CatalogRequestsTotal.WithLabelValues("success").Inc()
	card := convertCard(response.Data)
	return &card, nil
}

// SearchCards looks cards up by name prefix.
func (c *HTTPClient) SearchCards(ctx context.Context, query string) ([]models.Card, error) {
	q := url.QueryEscape(fmt.Sprintf("name:%s*", query))
	var response struct {
		Data []apiCard `json:"data"`
	}
	status, err := c.get(ctx, fmt.Sprintf("%s/cards?q=%s", c.baseURL, q), &response)
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if status == http.StatusNotFound {
		metrics.CatalogRequestsTotal.WithLabelValues("not_found").Inc()
		return nil, nil
	}

	metrics.CatalogRequestsTotal.WithLabelValues("success").Inc()
	cards := make([]models.Card, len(response.Data))
	for i, ac := range response.Data {
		cards[i] = convertCard(ac)
	}
	return cards, nil
}

func (c *HTTPClient) get(ctx context.Context, reqURL string, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create catalog request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return http.StatusNotFound, nil
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("catalog API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return resp.StatusCode, nil
}

func convertCard(ac apiCard) models.Card {
	card := models.Card{
		ID:          ac.ID,
		Name:        ac.Name,
		HP:          ac.HP,
		Rarity:      ac.Rarity,
		Types:       ac.Types,
		Subtypes:    ac.Subtypes,
		SetID:       ac.Set.ID,
		SetName:     ac.Set.Name,
		SeriesName:  ac.Set.Series,
		SetLogo:     ac.Set.Images.Logo,
		ReleaseDate: ac.Set.ReleaseDate,
		Attacks:     ac.Attacks,
		Abilities:   ac.Abilities,
		Weaknesses:  ac.Weaknesses,
		Resistances: ac.Resistances,
		RetreatCost: ac.RetreatCost,
		Artist:      ac.Artist,
		FlavorText:  ac.FlavorText,
		Number:      ac.Number,
		ImageSmall:  ac.Images.Small,
		ImageLarge:  ac.Images.Large,
	}
	if ac.TCGPlayer != nil {
		card.TCGPlayerURL = ac.TCGPlayer.URL
		card.TCGPlayerPrices = ac.TCGPlayer.Prices
	}
	if ac.Cardmarket != nil {
		card.CardmarketURL = ac.Cardmarket.URL
		card.CardmarketPrices = ac.Cardmarket.Prices
	}
	return card
}
