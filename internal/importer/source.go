package importer

// Zone is the common intermediate form produced by every Source: one zone of
// named rooms joined by exits. A zone becomes one area of the output dataset.
type Zone struct {
	Name        string
	Description string
	// Start names the room the layout grows from; empty means the first room.
	Start string
	Rooms []ZoneRoom
}

// ZoneRoom is one room of a Zone. Key is unique within the zone and is what
// exit targets refer to.
type ZoneRoom struct {
	Key         string
	Name        string
	Description string
	// Region is an optional sub-grouping carried into the room's userData.
	Region string
	Exits  []ZoneExit
}

// ZoneExit leads from a room to another room of the same zone.
type ZoneExit struct {
	Direction string
	Target    string
}

// Source loads content from a format-specific source directory.
//
// Precondition: sourceDir must exist and contain the expected layout for the format.
// startRoom is an optional display-name override for each zone's start room;
// empty string means "use format default".
// Postcondition: returns at least one Zone, or a non-nil error. Recoverable
// problems are returned as warnings.
type Source interface {
	Load(sourceDir, startRoom string) ([]*Zone, []string, error)
}
