// Package onboardingstatus owns the stores.onboarding_completed flag that
// decides whether a merchant is routed back into onboarding.
package onboardingstatus
