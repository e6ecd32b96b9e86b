package domain

import (
	"fmt"
	"strings"
)

// ItemStatus tracks the lending lifecycle of an item.
type ItemStatus string

const (
	StatusAvailable   ItemStatus = "available"
	StatusOnLoan      ItemStatus = "on_loan"
	StatusMaintenance ItemStatus = "maintenance"
	StatusRetired     ItemStatus = "retired"
)

// Visibility controls who may see and edit an item or location.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Feature is a descriptive flag on an item.
type Feature string

const (
	FeatureFragile    Feature = "fragile"
	FeatureElectric   Feature = "electric"
	FeatureConsumable Feature = "consumable"
	FeatureHeavy      Feature = "heavy"
)

// Model output arrives in English or Chinese; the synonym tables below feed
// the shared normalizers so executor and verifier agree on parsed values.
var statusSynonyms = map[string]ItemStatus{
	"available":   StatusAvailable,
	"in_stock":    StatusAvailable,
	"可用":          StatusAvailable,
	"在库":          StatusAvailable,
	"on_loan":     StatusOnLoan,
	"loaned":      StatusOnLoan,
	"lent":        StatusOnLoan,
	"借出":          StatusOnLoan,
	"外借":          StatusOnLoan,
	"maintenance": StatusMaintenance,
	"repair":      StatusMaintenance,
	"维修":          StatusMaintenance,
	"维护":          StatusMaintenance,
	"retired":     StatusRetired,
	"scrapped":    StatusRetired,
	"报废":          StatusRetired,
	"退役":          StatusRetired,
}

var visibilitySynonyms = map[string]Visibility{
	"public":  VisibilityPublic,
	"公开":      VisibilityPublic,
	"private": VisibilityPrivate,
	"私有":      VisibilityPrivate,
	"私人":      VisibilityPrivate,
}

var featureSynonyms = map[string]Feature{
	"fragile":    FeatureFragile,
	"易碎":         FeatureFragile,
	"electric":   FeatureElectric,
	"带电":         FeatureElectric,
	"电器":         FeatureElectric,
	"consumable": FeatureConsumable,
	"耗材":         FeatureConsumable,
	"heavy":      FeatureHeavy,
	"重物":         FeatureHeavy,
}

// ParseStatus normalizes a status token. Empty input returns the zero value
// with no error so callers can treat absent fields as "don't touch".
func ParseStatus(raw string) (ItemStatus, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", nil
	}
	if status, ok := statusSynonyms[trimmed]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q (expected one of %s)", raw, strings.Join(StatusValues(), ", "))
}

// ParseVisibility normalizes a visibility token.
func ParseVisibility(raw string) (Visibility, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", nil
	}
	if vis, ok := visibilitySynonyms[trimmed]; ok {
		return vis, nil
	}
	return "", fmt.Errorf("unknown visibility %q (expected one of %s)", raw, strings.Join(VisibilityValues(), ", "))
}

// ParseFeature normalizes a single feature token.
func ParseFeature(raw string) (Feature, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", nil
	}
	if feat, ok := featureSynonyms[trimmed]; ok {
		return feat, nil
	}
	return "", fmt.Errorf("unknown feature %q (expected one of %s)", raw, strings.Join(FeatureValues(), ", "))
}

// ParseFeatures normalizes a feature list, dropping empties and duplicates.
func ParseFeatures(raw []string) ([]Feature, error) {
	seen := make(map[Feature]bool, len(raw))
	out := make([]Feature, 0, len(raw))
	for _, token := range raw {
		feat, err := ParseFeature(token)
		if err != nil {
			return nil, err
		}
		if feat == "" || seen[feat] {
			continue
		}
		seen[feat] = true
		out = append(out, feat)
	}
	return out, nil
}

// StatusValues lists the canonical status tokens, for prompt text.
func StatusValues() []string {
	return []string{string(StatusAvailable), string(StatusOnLoan), string(StatusMaintenance), string(StatusRetired)}
}

// VisibilityValues lists the canonical visibility tokens.
func VisibilityValues() []string {
	return []string{string(VisibilityPublic), string(VisibilityPrivate)}
}

// FeatureValues lists the canonical feature tokens.
func FeatureValues() []string {
	return []string{string(FeatureFragile), string(FeatureElectric), string(FeatureConsumable), string(FeatureHeavy)}
}
