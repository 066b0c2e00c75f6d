// Package ir provides the core value types shared by every microstore
// package: rows, records, typed batches, interpreter results and the ordered
// payload a push operation consumes.
//
// This package contains type definitions and encoding helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key conventions:
//   - A Row holds storable scalars only (string, float64, bool)
//   - A Record is what the application sees after field and record transforms
//   - Payload keys keep their insertion order; batch order follows it
//   - MarshalCanonical is the only encoding used for signatures and golden files
package ir
