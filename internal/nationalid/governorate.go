package nationalid

import "strings"

// Governorate is the two-digit administrative region code carried in digits 7-8 of a national ID.
type Governorate string

const (
	Cairo        Governorate = "01"
	Alexandria   Governorate = "02"
	PortSaid     Governorate = "03"
	Suez         Governorate = "04"
	Damietta     Governorate = "11"
	Dakahlia     Governorate = "12"
	Sharqia      Governorate = "13"
	Qalyubia     Governorate = "14"
	KafrElSheikh Governorate = "15"
	Gharbia      Governorate = "16"
	Monufia      Governorate = "17"
	Beheira      Governorate = "18"
	Ismailia     Governorate = "19"
	Giza         Governorate = "21"
	BeniSuef     Governorate = "22"
	Fayoum       Governorate = "23"
	Minya        Governorate = "24"
	Asyut        Governorate = "25"
	Sohag        Governorate = "26"
	Qena         Governorate = "27"
	Aswan        Governorate = "28"
	Luxor        Governorate = "29"
	RedSea       Governorate = "31"
	NewValley    Governorate = "32"
	Matrouh      Governorate = "33"
	NorthSinai   Governorate = "34"
	SouthSinai   Governorate = "35"
	BornAbroad   Governorate = "88"
)

var governorateOrder = []Governorate{
	Cairo, Alexandria, PortSaid, Suez, Damietta, Dakahlia, Sharqia, Qalyubia, KafrElSheikh, Gharbia,
	Monufia, Beheira, Ismailia, Giza, BeniSuef, Fayoum, Minya, Asyut, Sohag, Qena, Aswan, Luxor,
	RedSea, NewValley, Matrouh, NorthSinai, SouthSinai, BornAbroad,
}

var governorateNames = map[Governorate]string{
	Cairo:        "Cairo",
	Alexandria:   "Alexandria",
	PortSaid:     "Port Said",
	Suez:         "Suez",
	Damietta:     "Damietta",
	Dakahlia:     "Dakahlia",
	Sharqia:      "Sharqia",
	Qalyubia:     "Qalyubia",
	KafrElSheikh: "Kafr El Sheikh",
	Gharbia:      "Gharbia",
	Monufia:      "Monufia",
	Beheira:      "Beheira",
	Ismailia:     "Ismailia",
	Giza:         "Giza",
	BeniSuef:     "Beni Suef",
	Fayoum:       "Fayoum",
	Minya:        "Minya",
	Asyut:        "Asyut",
	Sohag:        "Sohag",
	Qena:         "Qena",
	Aswan:        "Aswan",
	Luxor:        "Luxor",
	RedSea:       "Red Sea",
	NewValley:    "New Valley",
	Matrouh:      "Matrouh",
	NorthSinai:   "North Sinai",
	SouthSinai:   "South Sinai",
	BornAbroad:   "Born Abroad",
}

// Known reports whether g is one of the enumerated codes.
func (g Governorate) Known() bool {
	_, ok := governorateNames[g]
	return ok
}

// Name returns the display name, or an empty string for an unknown code.
func (g Governorate) Name() string {
	return governorateNames[g]
}

// Code returns the two-digit code.
func (g Governorate) Code() string {
	return string(g)
}

// Governorates returns every known governorate in code order.
func Governorates() []Governorate {
	out := make([]Governorate, len(governorateOrder))
	copy(out, governorateOrder)
	return out
}

// LookupGovernorate resolves a two-digit code or a display name (case-insensitive).
func LookupGovernorate(value string) (Governorate, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if g := Governorate(value); g.Known() {
		return g, true
	}
	for _, g := range governorateOrder {
		if strings.EqualFold(governorateNames[g], value) {
			return g, true
		}
	}
	return "", false
}
