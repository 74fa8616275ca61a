package fedex

// Wire shapes for the FedEx rate and OAuth APIs. Only the fields the
// adapter reads are modeled; the carrier payloads carry plenty more.

// RateRequest is the rate-quote request body.
type RateRequest struct {
	AccountNumber     AccountNumber     `json:"accountNumber"`
	RequestedShipment RequestedShipment `json:"requestedShipment"`
}

// AccountNumber wraps the account value the way the rate API expects it.
type AccountNumber struct {
	Value string `json:"value"`
}

// RequestedShipment describes the shipment being rated.
type RequestedShipment struct {
	Shipper                   Party             `json:"shipper"`
	Recipient                 Party             `json:"recipient"`
	PickupType                string            `json:"pickupType"`
	PackagingType             string            `json:"packagingType"`
	RateRequestType           []string          `json:"rateRequestType"`
	RequestedPackageLineItems []PackageLineItem `json:"requestedPackageLineItems"`
}

// Party holds one side of the shipment.
type Party struct {
	Address PartyAddress `json:"address"`
}

// PartyAddress is the subset of address fields rating needs.
type PartyAddress struct {
	City                string `json:"city,omitempty"`
	StateOrProvinceCode string `json:"stateOrProvinceCode,omitempty"`
	PostalCode          string `json:"postalCode"`
	CountryCode         string `json:"countryCode"`
	Residential         bool   `json:"residential"`
}

// PackageLineItem describes one parcel.
type PackageLineItem struct {
	Weight        Weight     `json:"weight"`
	Dimensions    Dimensions `json:"dimensions"`
	DeclaredValue *Money     `json:"declaredValue,omitempty"`
}

// Weight is a unit-tagged weight value.
type Weight struct {
	Units string  `json:"units"`
	Value float64 `json:"value"`
}

// Dimensions are whole units per the carrier's schema.
type Dimensions struct {
	Length int    `json:"length"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Units  string `json:"units"`
}

// Money is a currency-tagged amount.
type Money struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// RateReply is the rate-quote response body.
type RateReply struct {
	TransactionID string     `json:"transactionId"`
	Output        RateOutput `json:"output"`
}

// RateOutput carries the rated services plus any alerts.
type RateOutput struct {
	Alerts           []Alert           `json:"alerts"`
	RateReplyDetails []RateReplyDetail `json:"rateReplyDetails"`
}

// Alert is a carrier advisory. AlertType ERROR is fatal; NOTE and WARNING
// are informational.
type Alert struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	AlertType string `json:"alertType"`
}

// AlertTypeError marks a fatal alert.
const AlertTypeError = "ERROR"

// RateReplyDetail is one service option in the reply.
type RateReplyDetail struct {
	ServiceType          string                `json:"serviceType"`
	ServiceName          string                `json:"serviceName"`
	Commit               *CommitDetail         `json:"commit,omitempty"`
	OperationalDetail    *OperationalDetail    `json:"operationalDetail,omitempty"`
	RatedShipmentDetails []RatedShipmentDetail `json:"ratedShipmentDetails"`
}

// CommitDetail holds the delivery commitment, when the carrier makes one.
type CommitDetail struct {
	DateDetail *CommitDateDetail `json:"dateDetail,omitempty"`
	Guaranteed bool              `json:"guaranteed"`
}

// CommitDateDetail carries the committed delivery instant.
type CommitDateDetail struct {
	DayOfWeek    string `json:"dayOfWeek,omitempty"`
	DayCxsFormat string `json:"dayCxsFormat,omitempty"`
}

// OperationalDetail carries operational delivery data.
type OperationalDetail struct {
	DeliveryDate string `json:"deliveryDate,omitempty"`
	DeliveryDay  string `json:"deliveryDay,omitempty"`
}

// RatedShipmentDetail is one rate-type variant for a service.
type RatedShipmentDetail struct {
	RateType                         string              `json:"rateType"`
	TotalNetCharge                   float64             `json:"totalNetCharge"`
	TotalNetChargeWithDutiesAndTaxes float64             `json:"totalNetChargeWithDutiesAndTaxes,omitempty"`
	Currency                         string              `json:"currency"`
	ShipmentRateDetail               *ShipmentRateDetail `json:"shipmentRateDetail,omitempty"`
}

// ShipmentRateDetail carries shipment-level rate components.
type ShipmentRateDetail struct {
	Surcharges []Surcharge `json:"surCharges"`
}

// Surcharge is one carrier-imposed extra.
type Surcharge struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type apiError struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}
