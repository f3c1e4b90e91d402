package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// OpenDataProvider queries the SNCF open data discount-fare dataset. It only
// knows OUI/NON availability, so seat counts come back as the unknown-count
// marker (-1) or 0, never an exact number.
type OpenDataProvider struct {
	baseURL string
	client  *http.Client
}

// NewOpenDataProvider creates a provider against the given records endpoint.
func NewOpenDataProvider(baseURL string) *OpenDataProvider {
	return &OpenDataProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// openDataRecord mirrors one row of the tgvmax dataset.
type openDataRecord struct {
	Date            string `json:"date"`
	TrainNo         string `json:"train_no"`
	Entity          string `json:"entity"`
	OrigineIATA     string `json:"origine_iata"`
	DestinationIATA string `json:"destination_iata"`
	HeureDepart     string `json:"heure_depart"`
	HeureArrivee    string `json:"heure_arrivee"`
	ODHappyCard     string `json:"od_happy_card"`
}

type openDataResponse struct {
	TotalCount int              `json:"total_count"`
	Results    []openDataRecord `json:"results"`
}

// Fetch queries the dataset for one (origin, destination, date) task.
func (p *OpenDataProvider) Fetch(ctx context.Context, origin, destination, date string) (*Result, error) {
	where := fmt.Sprintf("date=date'%s' AND origine_iata='%s' AND destination_iata='%s'",
		date, origin, destination)

	q := url.Values{}
	q.Set("where", where)
	q.Set("limit", "50")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build open data request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open data request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("open data returned HTTP %d: %s", resp.StatusCode, body)
	}

	var data openDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode open data response: %w", err)
	}

	trains := make([]Train, 0, len(data.Results))
	for _, r := range data.Results {
		seats := 0
		if r.ODHappyCard == "OUI" {
			seats = -1
		}
		trainType := r.Entity
		if trainType == "" {
			trainType = "TGV"
		}
		trains = append(trains, Train{
			TrainNumber:    r.TrainNo,
			TrainType:      trainType,
			DepartureTime:  r.Date + "T" + r.HeureDepart,
			ArrivalTime:    r.Date + "T" + r.HeureArrivee,
			SeatsAvailable: seats,
			Origin:         origin,
			Destination:    destination,
		})
	}

	return &Result{Source: SourceFallback, Trains: trains}, nil
}
