// Package models defines the core domain models for the phonebook service.
//
// # Models
//
//   - Person: a phonebook entry (name, optional phone, street, city)
//   - Address: a derived view composed from a Person's street and city
//   - User: a registered account holding an ordered list of Person friends
//
// # Design Principles
//
// 1. **Flat structs**: models carry no behavior beyond tiny projections
// 2. **Derived data stays derived**: Address is computed from Person fields,
// never stored separately
// 3. **Avoid circular references**: friends are resolved Person values; the
// store keeps the relationship as ID pairs
package models
