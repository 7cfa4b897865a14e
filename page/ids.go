package page

import (
	"hash/fnv"
	"strconv"
)

const idPrefix = "light-"

// BuildLightID returns the DOM identifier for elementName on a light tile:
// "light-<lightID>-<elementName>". Light IDs come from the bridge and only
// contain identifier-safe characters, so they are used as-is.
func BuildLightID(lightID, elementName string) string {
	return idPrefix + lightID + "-" + elementName
}

// BuildGroupID returns the DOM identifier for elementName on a group tile:
// "light-<hash(groupName)>-<elementName>". Group names are free-form user
// text that may contain characters illegal in DOM identifiers, so the name
// is hashed. Collisions are negligible for the tens of groups a bridge
// holds.
func BuildGroupID(groupName, elementName string) string {
	h := fnv.New32a()
	h.Write([]byte(groupName))
	return idPrefix + strconv.FormatUint(uint64(h.Sum32()), 10) + "-" + elementName
}
