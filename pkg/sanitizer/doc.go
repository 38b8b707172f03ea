// Package sanitizer normalizes reservation input before it is validated and stored.
//
// All functions are idempotent: applying them twice gives the same result as applying
// them once. Invalid input is never rejected here; it is passed through trimmed so the
// validator can report it with a field-level message.
//
// Normalization includes:
//   - Names and notes: collapse whitespace, trim leading/trailing spaces
//   - Emails: trim and lowercase
//   - Phone numbers: E.164 when the number parses and is valid for a supported region
//   - Identifiers: trim only, case is preserved
package sanitizer
