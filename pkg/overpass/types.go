package overpass

// Response is the decoded body of an Overpass API JSON response.
type Response struct {
	Version   float64           `json:"version,omitempty"`
	Generator string            `json:"generator,omitempty"`
	Osm3s     map[string]string `json:"osm3s,omitempty"`
	Elements  []Element         `json:"elements"`
}

// LatLon is a single vertex of a way or relation member geometry.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element represents one element of an Overpass response: a node, way or
// relation, discriminated by Type. Geometry fields are populated when the
// query requested "out geom".
type Element struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat,omitempty"` // nodes
	Lon  float64           `json:"lon,omitempty"` // nodes
	Tags map[string]string `json:"tags,omitempty"`

	// Geometry carries the ordered vertex list of a way.
	Geometry []LatLon `json:"geometry,omitempty"`

	// Members carries the member list of a relation.
	Members []Member `json:"members,omitempty"`
}

// Member is a single member of a relation element.
type Member struct {
	Type     string   `json:"type"`
	Ref      int64    `json:"ref"`
	Role     string   `json:"role"`
	Geometry []LatLon `json:"geometry,omitempty"`
}
