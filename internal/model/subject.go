package model

import (
	"fmt"
	"strings"
)

// Subjects students can enroll in.
var Subjects = []string{
	"Sinhala",
	"Geography",
	"Economics",
	"Biology",
	"Buddhist Culture and Logic",
	"Physics",
	"Chemistry",
	"Combined Mathematics",
	"Engineering & Bio System Technology",
	"Science for Technology",
	"ICT",
	"Agriculture and Applied Sciences",
}

// SubjectOther is the teaching subject assigned when none is given.
const SubjectOther = "other"

// IsValidSubject reports whether s is one of Subjects (exact match).
func IsValidSubject(s string) bool {
	for _, subj := range Subjects {
		if subj == s {
			return true
		}
	}
	return false
}

// IsValidTeachingSubject accepts the lower-cased subject names plus "other".
func IsValidTeachingSubject(s string) bool {
	if s == SubjectOther {
		return true
	}
	for _, subj := range Subjects {
		if strings.ToLower(subj) == s {
			return true
		}
	}
	return false
}

const DefaultExperience = "beginner"

// ExperienceLevels lists the accepted userExperience values.
var ExperienceLevels = buildExperienceLevels(25)

func buildExperienceLevels(maxYears int) []string {
	levels := []string{DefaultExperience, "1+ year experience"}
	for y := 2; y <= maxYears; y++ {
		levels = append(levels, fmt.Sprintf("%d+ years experience", y))
	}
	return levels
}

func IsValidExperience(s string) bool {
	for _, lvl := range ExperienceLevels {
		if lvl == s {
			return true
		}
	}
	return false
}
