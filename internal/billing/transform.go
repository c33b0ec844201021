package billing

import (
	"regexp"
	"strings"
	"time"

	"billing-functions-api/internal/models"
)

var lambdaARNPattern = regexp.MustCompile(`(?i)arn:aws:lambda`)

// dateLayouts are tried in order when coercing *Date* columns
var dateLayouts = []string{
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

// IsLambdaResource reports whether a row belongs to a Lambda function.
// Rows without a ResourceId never match.
func IsLambdaResource(record models.BillingRecord) bool {
	resourceID, ok := record["ResourceId"]
	if !ok || resourceID == "" {
		return false
	}
	return lambdaARNPattern.MatchString(resourceID)
}

// Project restricts a record to models.BillingFields, coerces date columns and
// tags the result with the billing source. Missing columns are left out.
func Project(record models.BillingRecord) (models.BillingDocument, error) {
	doc := make(models.BillingDocument, len(models.BillingFields)+1)

	for _, field := range models.BillingFields {
		value, ok := record[field]
		if !ok {
			continue
		}

		if isDateField(field) {
			t, err := parseDate(value)
			if err != nil {
				return nil, &TransformError{Field: field, Value: value, Err: err}
			}
			doc[field] = t
			continue
		}

		doc[field] = value
	}

	doc["source"] = models.BillingSource
	return doc, nil
}

// Transform applies the row filter then the projection. ok is false for rows
// that are skipped; skipping is not an error.
func Transform(record models.BillingRecord) (doc models.BillingDocument, ok bool, err error) {
	if !IsLambdaResource(record) {
		return nil, false, nil
	}

	doc, err = Project(record)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// isDateField matches columns containing "Date" anywhere but the very start
func isDateField(field string) bool {
	return strings.Index(field, "Date") > 0
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyDate
	}

	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
