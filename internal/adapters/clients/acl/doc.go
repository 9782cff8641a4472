// Package acl is the anti-corruption layer between the Airtable REST API and
// the domain.
//
// Airtable records are loosely typed: the same column can come back as a
// string, a number, a list of linked values or a list of attachment objects
// depending on how the base is configured. [AirtableAdapter] absorbs those
// shapes and hands the application plain [domain.RawQuote] values, leaving
// validation to the collection loader.
//
// # Field dialects
//
// With the "name" dialect fields are addressed by their display names. With
// the "id" dialect the adapter asks for returnFieldsByFieldId=true and the
// field map holds stable field IDs, so renaming a column does not break the
// gallery.
//
// # Errors
//
// Every failure leaving this package is a domain error:
//   - 401 and 403 become [domain.ErrForbidden]
//   - 404 and TABLE_NOT_FOUND become [domain.ErrNotFound]
//   - VIEW_NAME_NOT_FOUND and UNKNOWN_FIELD_NAME become [domain.ErrValidation]
//   - 429, 5xx, transport failures and an open circuit become [domain.ErrUnavailable]
package acl
