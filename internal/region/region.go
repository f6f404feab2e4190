// Package region normalizes the country values buyers type into addresses.
// Shipping rate tables are keyed by ISO 3166-1 alpha-2 codes, but address
// forms deliver anything from "us" to "United States" to "USA"; everything
// funnels through CountryCode before a rate lookup.
package region

import "strings"

// alpha2 is the set of supported destination codes. Values are display names.
var alpha2 = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"MX": "Mexico",
	"GB": "United Kingdom",
	"IE": "Ireland",
	"DE": "Germany",
	"FR": "France",
	"ES": "Spain",
	"IT": "Italy",
	"NL": "Netherlands",
	"BE": "Belgium",
	"AT": "Austria",
	"CH": "Switzerland",
	"SE": "Sweden",
	"NO": "Norway",
	"DK": "Denmark",
	"FI": "Finland",
	"PL": "Poland",
	"PT": "Portugal",
	"CZ": "Czechia",
	"AU": "Australia",
	"NZ": "New Zealand",
	"JP": "Japan",
	"KR": "South Korea",
	"SG": "Singapore",
	"BR": "Brazil",
	"AR": "Argentina",
	"CL": "Chile",
	"ZA": "South Africa",
	"IN": "India",
}

// alpha3 maps ISO 3166-1 alpha-3 codes to alpha-2.
var alpha3 = map[string]string{
	"USA": "US", "CAN": "CA", "MEX": "MX", "GBR": "GB", "IRL": "IE",
	"DEU": "DE", "FRA": "FR", "ESP": "ES", "ITA": "IT", "NLD": "NL",
	"BEL": "BE", "AUT": "AT", "CHE": "CH", "SWE": "SE", "NOR": "NO",
	"DNK": "DK", "FIN": "FI", "POL": "PL", "PRT": "PT", "CZE": "CZ",
	"AUS": "AU", "NZL": "NZ", "JPN": "JP", "KOR": "KR", "SGP": "SG",
	"BRA": "BR", "ARG": "AR", "CHL": "CL", "ZAF": "ZA", "IND": "IN",
}

// names maps lowercased country names and common aliases to alpha-2.
var names = map[string]string{
	"united states":            "US",
	"united states of america": "US",
	"america":                  "US",
	"canada":                   "CA",
	"mexico":                   "MX",
	"united kingdom":           "GB",
	"great britain":            "GB",
	"england":                  "GB",
	"uk":                       "GB",
	"ireland":                  "IE",
	"germany":                  "DE",
	"france":                   "FR",
	"spain":                    "ES",
	"italy":                    "IT",
	"netherlands":              "NL",
	"holland":                  "NL",
	"belgium":                  "BE",
	"austria":                  "AT",
	"switzerland":              "CH",
	"sweden":                   "SE",
	"norway":                   "NO",
	"denmark":                  "DK",
	"finland":                  "FI",
	"poland":                   "PL",
	"portugal":                 "PT",
	"czechia":                  "CZ",
	"czech republic":           "CZ",
	"australia":                "AU",
	"new zealand":              "NZ",
	"japan":                    "JP",
	"south korea":              "KR",
	"korea":                    "KR",
	"singapore":                "SG",
	"brazil":                   "BR",
	"argentina":                "AR",
	"chile":                    "CL",
	"south africa":             "ZA",
	"india":                    "IN",
}

// CountryCode normalizes a country string to its ISO 3166-1 alpha-2 code.
// Accepts alpha-2 and alpha-3 codes in any case and common English names.
// Returns "" when the input is not recognized.
func CountryCode(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	upper := strings.ToUpper(s)
	if len(upper) == 2 {
		if _, ok := alpha2[upper]; ok {
			return upper
		}
	}
	if len(upper) == 3 {
		if code, ok := alpha3[upper]; ok {
			return code
		}
	}
	if code, ok := names[strings.ToLower(s)]; ok {
		return code
	}
	return ""
}

// CountryName returns the display name for an alpha-2 code, or "" when the
// code is not supported.
func CountryName(code string) string {
	return alpha2[strings.ToUpper(strings.TrimSpace(code))]
}
