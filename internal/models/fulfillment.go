package models

// FulfillmentEvent is the envelope Printful posts to the shipment webhook.
// Only "package_shipped" mutates state; every other type is acknowledged
// and ignored.
type FulfillmentEvent struct {
	Type string               `json:"type"`
	Data FulfillmentEventData `json:"data"`
}

type FulfillmentEventData struct {
	Order    FulfillmentOrderRef `json:"order"`
	Shipment FulfillmentShipment `json:"shipment"`
}

type FulfillmentOrderRef struct {
	ID int64 `json:"id"`
}

type FulfillmentShipment struct {
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

const FulfillmentEventPackageShipped = "package_shipped"
