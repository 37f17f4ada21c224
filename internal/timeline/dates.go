// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package timeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/vestigium/internal/models"
)

// ExtractedDate is one date found in free text, with the precision its
// source form supports.
type ExtractedDate struct {
	Date      time.Time
	Precision models.DatePrecision
	// Matched is the exact text span, for provenance.
	Matched string
}

var (
	// ISO-8601: 2006-01-02, optionally with a time component.
	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})(?:[T ]\d{2}:\d{2})?\b`)

	// Numeric forms: 01/02/2006 (US) and 02.01.2006 (EU). Slash forms are
	// read month-first, dot forms day-first; an unambiguous first field
	// >12 flips the reading.
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	dotDateRe   = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`)

	// Named month: "January 2, 2006", "2 January 2006", "January 2006".
	monthDayYearRe = regexp.MustCompile(`\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	dayMonthYearRe = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthNames + `)\.?,?\s+(\d{4})\b`)
	monthYearRe    = regexp.MustCompile(`\b(` + monthNames + `)\.?,?\s+(\d{4})\b`)

	// Year only, restricted to a plausible window.
	yearRe = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

	// "circa 1985", "around 2010", "~1999".
	approxYearRe = regexp.MustCompile(`(?i)\b(?:circa|around|about|approx\.?|~)\s*(1[89]\d{2}|20\d{2})\b`)
)

const monthNames = `(?i:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ExtractDates finds dates in free text, most precise form first at each
// position. A span claimed by a precise pattern is not re-reported by a
// vaguer one, so "January 2, 2006" yields one day-precision date, not
// three.
func ExtractDates(text string) []ExtractedDate {
	var out []ExtractedDate
	claimed := make([]bool, len(text))

	claim := func(start, end int) bool {
		for i := start; i < end && i < len(claimed); i++ {
			if claimed[i] {
				return false
			}
		}
		for i := start; i < end && i < len(claimed); i++ {
			claimed[i] = true
		}
		return true
	}

	for _, loc := range isoDateRe.FindAllStringSubmatchIndex(text, -1) {
		m := submatches(text, loc)
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if !validDate(year, month, day) || !claim(loc[0], loc[1]) {
			continue
		}
		out = append(out, ExtractedDate{
			Date:      time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
			Precision: models.PrecisionDay,
			Matched:   m[0],
		})
	}

	for _, re := range []*regexp.Regexp{slashDateRe, dotDateRe} {
		dayFirst := re == dotDateRe
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			m := submatches(text, loc)
			a, _ := strconv.Atoi(m[1])
			bb, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])

			month, day := a, bb
			if dayFirst {
				month, day = bb, a
			}
			// A first field over 12 can only be the day.
			if a > 12 {
				month, day = bb, a
			} else if bb > 12 {
				month, day = a, bb
			}
			if !validDate(year, month, day) || !claim(loc[0], loc[1]) {
				continue
			}
			out = append(out, ExtractedDate{
				Date:      time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
				Precision: models.PrecisionDay,
				Matched:   m[0],
			})
		}
	}

	for _, loc := range monthDayYearRe.FindAllStringSubmatchIndex(text, -1) {
		m := submatches(text, loc)
		month := parseMonth(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month == 0 || !validDate(year, int(month), day) || !claim(loc[0], loc[1]) {
			continue
		}
		out = append(out, ExtractedDate{
			Date:      time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
			Precision: models.PrecisionDay,
			Matched:   m[0],
		})
	}

	for _, loc := range dayMonthYearRe.FindAllStringSubmatchIndex(text, -1) {
		m := submatches(text, loc)
		day, _ := strconv.Atoi(m[1])
		month := parseMonth(m[2])
		year, _ := strconv.Atoi(m[3])
		if month == 0 || !validDate(year, int(month), day) || !claim(loc[0], loc[1]) {
			continue
		}
		out = append(out, ExtractedDate{
			Date:      time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
			Precision: models.PrecisionDay,
			Matched:   m[0],
		})
	}

	for _, loc := range monthYearRe.FindAllStringSubmatchIndex(text, -1) {
		m := submatches(text, loc)
		month := parseMonth(m[1])
		year, _ := strconv.Atoi(m[2])
		if month == 0 || year < 1800 || year > 2100 || !claim(loc[0], loc[1]) {
			continue
		}
		out = append(out, ExtractedDate{
			Date:      time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
			Precision: models.PrecisionMonth,
			Matched:   m[0],
		})
	}

	for _, loc := range approxYearRe.FindAllStringSubmatchIndex(text, -1) {
		m := submatches(text, loc)
		year, _ := strconv.Atoi(m[1])
		if !claim(loc[0], loc[1]) {
			continue
		}
		out = append(out, ExtractedDate{
			Date:      time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			Precision: models.PrecisionApproximate,
			Matched:   m[0],
		})
	}

	for _, loc := range yearRe.FindAllStringSubmatchIndex(text, -1) {
		m := submatches(text, loc)
		year, _ := strconv.Atoi(m[1])
		if !claim(loc[0], loc[1]) {
			continue
		}
		out = append(out, ExtractedDate{
			Date:      time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			Precision: models.PrecisionYear,
			Matched:   m[0],
		})
	}

	return out
}

func submatches(text string, loc []int) []string {
	out := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			out = append(out, "")
			continue
		}
		out = append(out, text[loc[i]:loc[i+1]])
	}
	return out
}

func parseMonth(name string) time.Month {
	key := strings.ToLower(name)
	if len(key) > 3 {
		key = key[:3]
	}
	return monthIndex[key]
}

func validDate(year, month, day int) bool {
	if year < 1800 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}
