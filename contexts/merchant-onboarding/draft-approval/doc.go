// Package draftapproval commits an approved onboarding draft (store name,
// products, appearance) to durable store records.
package draftapproval
