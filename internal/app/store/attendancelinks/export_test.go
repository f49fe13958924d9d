package attendancelinks

import "time"

// SetNow overrides the store clock in tests.
func (s *Store) SetNow(now func() time.Time) { s.now = now }
