// Copyright 2025 RDK Management
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, expr string) *Expression {
	t.Helper()
	e, err := Parse(expr)
	require.NoError(t, err, "expr=%q", expr)
	return e
}

func TestParseRejectsBadSyntax(t *testing.T) {
	cases := []string{
		"",
		"* * * *",
		"* * * * * * *",
		"60 * * * *",
		"* 24 * * *",
		"5-1 * * * *",
		"*/0 * * * *",
		"* * 32 * *",
	}
	for _, expr := range cases {
		_, err := Parse(expr)
		assert.Error(t, err, "expr=%q", expr)
		var se *SyntaxError
		assert.ErrorAs(t, err, &se)
	}
}

func TestParseAcceptsFiveAndSixFields(t *testing.T) {
	mustParse(t, "* * * * *")
	mustParse(t, "0 * * * * *")
	mustParse(t, "*/5 * * * *")
	mustParse(t, "0 0 1-15/2 * *")
	mustParse(t, "0 0 ? * MON-FRI")
	mustParse(t, "0 0 * JAN,JUL *")
}

// Every-minute round trip: the 5-field form pins seconds to 0, so
// next_after(parse("* * * * *"), t) is the next whole-minute boundary.
func TestEveryMinuteRoundTrip(t *testing.T) {
	e := mustParse(t, "* * * * *")
	t0 := time.Date(2026, 3, 5, 10, 30, 17, 0, time.UTC)
	next, err := NextAfter(e, t0)
	require.NoError(t, err)
	assert.Equal(t, t0.Truncate(time.Minute).Add(time.Minute), next)
}

func TestFieldIndependence(t *testing.T) {
	e := mustParse(t, "15 */10 8-17 * * 1-5")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		next, err := NextAfter(e, t0)
		require.NoError(t, err)
		assert.True(t, e.secondSet(next.Second()))
		assert.True(t, e.minuteSet(next.Minute()))
		assert.True(t, e.hourSet(next.Hour()))
		assert.True(t, e.monthSet(int(next.Month())-1))
		t0 = next
	}
}

func TestDayCombinationExcludesSaturdayAndThirteenth(t *testing.T) {
	e := mustParse(t, "0 0 1-12,14-31 * MON-FRI")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		next, err := NextAfter(e, t0)
		require.NoError(t, err)
		assert.NotEqual(t, time.Saturday, next.Weekday())
		assert.NotEqual(t, 13, next.Day())
		t0 = next
	}
}

func TestSundayAcceptedAsZeroOrSeven(t *testing.T) {
	e0 := mustParse(t, "0 0 * * 0")
	e7 := mustParse(t, "0 0 * * 7")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n0, err := NextAfter(e0, t0)
	require.NoError(t, err)
	n7, err := NextAfter(e7, t0)
	require.NoError(t, err)
	assert.Equal(t, n0, n7)
	assert.Equal(t, time.Sunday, n0.Weekday())
}

func TestQuestionMarkEquivalentToStar(t *testing.T) {
	eQ := mustParse(t, "0 0 ? * ?")
	eS := mustParse(t, "0 0 * * *")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nQ, err := NextAfter(eQ, t0)
	require.NoError(t, err)
	nS, err := NextAfter(eS, t0)
	require.NoError(t, err)
	assert.Equal(t, nS, nQ)
}

func TestStepFromRange(t *testing.T) {
	e := mustParse(t, "0-30/10 * * * *")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	next, err := NextAfter(e, t0)
	require.NoError(t, err)
	assert.Contains(t, []int{0, 10, 20, 30}, next.Minute())
}

func TestMonthAbbreviationsCaseInsensitive(t *testing.T) {
	e := mustParse(t, "0 0 1 jan,Jul *")
	t0 := time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)
	next, err := NextAfter(e, t0)
	require.NoError(t, err)
	assert.Equal(t, time.July, next.Month())
}

func TestNoNextInstantWithinFourYears(t *testing.T) {
	// February 30th never exists: dom and month can never jointly match.
	e := mustParse(t, "0 0 30 2 *")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := NextAfter(e, t0)
	assert.ErrorIs(t, err, ErrNoNextInstant)
}
