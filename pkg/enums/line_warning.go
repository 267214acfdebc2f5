package enums

// LineWarning flags a quote line that cannot be finalized as priced.
type LineWarning string

const (
	// LineWarningNoPriceConfigured marks lines whose product has no price tiers.
	LineWarningNoPriceConfigured LineWarning = "no_price_configured"
	// LineWarningManualPriceRequired marks lines above the manual threshold still at zero.
	LineWarningManualPriceRequired LineWarning = "manual_price_required"
)

func (w LineWarning) String() string {
	return string(w)
}

// IsValid reports whether the value is a known LineWarning.
func (w LineWarning) IsValid() bool {
	switch w {
	case LineWarningNoPriceConfigured, LineWarningManualPriceRequired:
		return true
	default:
		return false
	}
}
