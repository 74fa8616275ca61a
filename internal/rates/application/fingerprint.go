package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// The fingerprint is the cache key for aggregation results: a deterministic
// hash over every request field that can influence the quotes.

type normalizedRequest struct {
	Package     normalizedPackage `json:"package"`
	Origin      normalizedAddress `json:"origin"`
	Destination normalizedAddress `json:"destination"`
	Options     normalizedOptions `json:"options"`
	Carriers    []string          `json:"carriers,omitempty"`
}

type normalizedPackage struct {
	LengthIn      float64 `json:"lengthIn"`
	WidthIn       float64 `json:"widthIn"`
	HeightIn      float64 `json:"heightIn"`
	WeightLb      float64 `json:"weightLb"`
	DeclaredValue string  `json:"declaredValue"`
	Class         string  `json:"class"`
}

type normalizedAddress struct {
	Line1       string `json:"line1"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
	Residential bool   `json:"residential"`
}

type normalizedOptions struct {
	Speed             string `json:"speed"`
	SignatureRequired bool   `json:"signatureRequired"`
	Insurance         bool   `json:"insurance"`
	InsuredValue      string `json:"insuredValue,omitempty"`
	FragileHandling   bool   `json:"fragileHandling"`
	WeekendDelivery   bool   `json:"weekendDelivery"`
}

// FingerprintRequest builds a deterministic hash of the shipment request's
// materialized fields.
func FingerprintRequest(req domain.ShipmentRequest) (string, error) {
	payload, err := json.Marshal(normalizeRequest(req))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeRequest(req domain.ShipmentRequest) normalizedRequest {
	normalized := normalizedRequest{
		Package: normalizedPackage{
			LengthIn:      req.Package.LengthIn,
			WidthIn:       req.Package.WidthIn,
			HeightIn:      req.Package.HeightIn,
			WeightLb:      req.Package.WeightLb,
			DeclaredValue: req.Package.DeclaredValue.String(),
			Class:         string(req.Package.Class),
		},
		Origin:      normalizeAddress(req.Origin),
		Destination: normalizeAddress(req.Destination),
		Options: normalizedOptions{
			Speed:             string(req.Options.SpeedFilter()),
			SignatureRequired: req.Options.SignatureRequired,
			Insurance:         req.Options.Insurance,
			FragileHandling:   req.Options.FragileHandling,
			WeekendDelivery:   req.Options.WeekendDelivery,
		},
	}
	if req.Options.InsuredValue != nil {
		normalized.Options.InsuredValue = req.Options.InsuredValue.String()
	}
	if len(req.Carriers) > 0 {
		carriers := make([]string, 0, len(req.Carriers))
		for _, carrier := range req.Carriers {
			carriers = append(carriers, string(carrier))
		}
		sort.Strings(carriers)
		normalized.Carriers = carriers
	}
	return normalized
}

func normalizeAddress(addr domain.Address) normalizedAddress {
	return normalizedAddress{
		Line1:       strings.TrimSpace(addr.Line1),
		City:        strings.TrimSpace(addr.City),
		State:       strings.TrimSpace(addr.State),
		PostalCode:  strings.TrimSpace(addr.PostalCode),
		CountryCode: strings.ToUpper(strings.TrimSpace(addr.CountryCode)),
		Residential: addr.Residential,
	}
}
