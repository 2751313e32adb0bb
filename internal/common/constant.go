// Package common contains shared constants and sentinel errors used across
// gophgroups components.
package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key carrying
// either account credentials or a group credential presentation.
const AuthorizationHeaderName = "authorization"

// RedemptionWindowDays is the number of days after today covered by one auth
// credential request. The window is inclusive, so a full batch holds
// RedemptionWindowDays+1 credentials.
const RedemptionWindowDays = 7

// SecondsPerDay is the length of one redemption day.
const SecondsPerDay = 86400
