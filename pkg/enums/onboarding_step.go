package enums

import "fmt"

// OnboardingStep names a milestone in the activation checklist.
type OnboardingStep string

const (
	OnboardingStepAddProduct  OnboardingStep = "add_product"
	OnboardingStepSellProduct OnboardingStep = "sell_product"
	OnboardingStepViewReport  OnboardingStep = "view_report"
	OnboardingStepInstallApp  OnboardingStep = "install_app"
)

// OnboardingSteps lists the steps in the order they are expected to be met.
var OnboardingSteps = []OnboardingStep{
	OnboardingStepAddProduct,
	OnboardingStepSellProduct,
	OnboardingStepViewReport,
	OnboardingStepInstallApp,
}

// String implements fmt.Stringer.
func (s OnboardingStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OnboardingStep.
func (s OnboardingStep) IsValid() bool {
	for _, candidate := range OnboardingSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOnboardingStep converts raw input into an OnboardingStep.
func ParseOnboardingStep(value string) (OnboardingStep, error) {
	for _, candidate := range OnboardingSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid onboarding step %q", value)
}
