package order

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// RoomType is a member of the closed room enumeration used to label stacks.
type RoomType string

const (
	RoomLivingRoom   RoomType = "Wohnzimmer"
	RoomKitchen      RoomType = "Küche"
	RoomDining       RoomType = "Esszimmer"
	RoomBedroom      RoomType = "Schlafzimmer"
	RoomChildren     RoomType = "Kinderzimmer"
	RoomBathroom     RoomType = "Badezimmer"
	RoomGuestWC      RoomType = "Gäste-WC"
	RoomHallway      RoomType = "Flur"
	RoomEntrance     RoomType = "Eingangsbereich"
	RoomStudy        RoomType = "Arbeitszimmer"
	RoomDressing     RoomType = "Ankleide"
	RoomStorage      RoomType = "Abstellraum"
	RoomUtility      RoomType = "Hauswirtschaftsraum"
	RoomCellar       RoomType = "Keller"
	RoomAttic        RoomType = "Dachboden"
	RoomGarage       RoomType = "Garage"
	RoomBalcony      RoomType = "Balkon"
	RoomTerrace      RoomType = "Terrasse"
	RoomGarden       RoomType = "Garten"
	RoomExterior     RoomType = "Außenansicht"
	RoomPool         RoomType = "Pool"
	RoomConservatory RoomType = "Wintergarten"
	RoomStairwell    RoomType = "Treppenhaus"
	RoomGym          RoomType = "Fitnessraum"
	RoomOther        RoomType = "Sonstiges"
)

var allRoomTypes = []RoomType{
	RoomLivingRoom,
	RoomKitchen,
	RoomDining,
	RoomBedroom,
	RoomChildren,
	RoomBathroom,
	RoomGuestWC,
	RoomHallway,
	RoomEntrance,
	RoomStudy,
	RoomDressing,
	RoomStorage,
	RoomUtility,
	RoomCellar,
	RoomAttic,
	RoomGarage,
	RoomBalcony,
	RoomTerrace,
	RoomGarden,
	RoomExterior,
	RoomPool,
	RoomConservatory,
	RoomStairwell,
	RoomGym,
	RoomOther,
}

var roomTypeIndex = func() map[string]RoomType {
	index := make(map[string]RoomType, len(allRoomTypes))
	for _, room := range allRoomTypes {
		index[roomKey(string(room))] = room
	}
	return index
}()

// roomKey normalizes composed/decomposed umlauts and case before lookup.
func roomKey(value string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(value)))
}

// AllRoomTypes returns the ordered room enumeration.
func AllRoomTypes() []RoomType {
	cp := make([]RoomType, len(allRoomTypes))
	copy(cp, allRoomTypes)
	return cp
}

// ParseRoomType resolves user input to its canonical room type. Matching is
// insensitive to case and Unicode normalization form.
func ParseRoomType(value string) (RoomType, bool) {
	if strings.TrimSpace(value) == "" {
		return "", false
	}
	room, ok := roomTypeIndex[roomKey(value)]
	return room, ok
}
