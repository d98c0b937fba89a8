package models

var (
	BaseModel = &Class{Name: "BaseModel"}

	User = &Class{
		Name: "User",
		Fields: []Field{
			{Name: "email", Default: String("")},
			{Name: "password", Default: String("")},
			{Name: "first_name", Default: String("")},
			{Name: "last_name", Default: String("")},
		},
	}

	State = &Class{
		Name:   "State",
		Fields: []Field{{Name: "name", Default: String("")}},
	}

	City = &Class{
		Name: "City",
		Fields: []Field{
			{Name: "state_id", Default: String("")},
			{Name: "name", Default: String("")},
		},
	}

	Amenity = &Class{
		Name:   "Amenity",
		Fields: []Field{{Name: "name", Default: String("")}},
	}

	Place = &Class{
		Name: "Place",
		Fields: []Field{
			{Name: "city_id", Default: String("")},
			{Name: "user_id", Default: String("")},
			{Name: "name", Default: String("")},
			{Name: "description", Default: String("")},
			{Name: "number_rooms", Default: Int(0)},
			{Name: "number_bathrooms", Default: Int(0)},
			{Name: "max_guest", Default: Int(0)},
			{Name: "price_by_night", Default: Int(0)},
			{Name: "latitude", Default: Float(0)},
			{Name: "longitude", Default: Float(0)},
			{Name: "amenity_ids", Default: List()},
		},
	}

	Review = &Class{
		Name: "Review",
		Fields: []Field{
			{Name: "place_id", Default: String("")},
			{Name: "user_id", Default: String("")},
			{Name: "text", Default: String("")},
		},
	}
)

// DefaultRegistry returns a registry with every built-in class.
func DefaultRegistry() *Registry {
	return NewRegistry(BaseModel, User, State, City, Amenity, Place, Review)
}
