package models

// BillingRecord is one parsed row of a billing export, keyed by header column
type BillingRecord map[string]string

// BillingDocument is the projection of a BillingRecord persisted to the usage
// stats collection. Values are strings, except date columns which hold time.Time.
type BillingDocument map[string]interface{}

// BillingSource is the constant provider tag stored on every billing document
const BillingSource = "AWS"

// BillingFields lists the columns projected from a billing row
var BillingFields = []string{
	"UsageType",
	"Operation",
	"UsageStartDate",
	"UsageEndDate",
	"UsageQuantity",
	"Cost",
	"ResourceId",
}

// UsageStatsCollection is the collection billing documents are written to
const UsageStatsCollection = "usagestats"

// BillingResponse is returned by the billing ingestion handler on success
type BillingResponse struct {
	Data string `json:"data"`
}

// BillingSuccessMessage is the payload of a successful ingestion
const BillingSuccessMessage = "success!"
