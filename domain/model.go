package domain

import (
	"encoding/json"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
}

// Image is the remote asset attached to a listing. FileName is the storage
// key used to delete the asset, URL is where it is served from.
type Image struct {
	URL      string `bson:"url" json:"url"`
	FileName string `bson:"fileName" json:"fileName"`
}

type Listing struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Price       int                  `bson:"price" json:"price"`
	Location    string               `bson:"location" json:"location"`
	Country     string               `bson:"country" json:"country"`
	Image       Image                `bson:"image" json:"image"`
	Categories  CategorySet          `bson:"categories" json:"categories"`
	Owner       primitive.ObjectID   `bson:"owner" json:"owner"`
	Reviews     []primitive.ObjectID `bson:"reviews" json:"reviews"`
}

// Review carries an explicit back-reference to its listing so the
// listing-review edge can be maintained from either side.
type Review struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Comment   string             `bson:"comment" json:"comment"`
	Rating    int                `bson:"rating" json:"rating"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Listing   primitive.ObjectID `bson:"listing" json:"listing"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

const PaymentMethodCash = "cash"

type Booking struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	User          primitive.ObjectID `bson:"user" json:"user"`
	Listing       primitive.ObjectID `bson:"listing" json:"listing"`
	Name          string             `bson:"name" json:"name"`
	Mobile        string             `bson:"mobile" json:"mobile"`
	CheckIn       time.Time          `bson:"checkIn" json:"checkIn"`
	CheckOut      time.Time          `bson:"checkOut" json:"checkOut"`
	TotalPrice    int                `bson:"totalPrice" json:"totalPrice"`
	PaymentMethod string             `bson:"paymentMethod" json:"paymentMethod"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// ReviewDetail is a review populated with its author, as shown on the
// listing detail view.
type ReviewDetail struct {
	Review
	Author *User `json:"author"`
}

// ListingDetail is a listing populated with its owner and reviews.
type ListingDetail struct {
	Listing
	Owner   *User          `json:"owner"`
	Reviews []ReviewDetail `json:"reviews"`
}

// BookingDetail is a booking populated with its listing, as shown in the
// profile booking history.
type BookingDetail struct {
	Booking
	Listing *Listing `json:"listing"`
}

// Categories is the fixed catalogue a listing may be filed under.
var Categories = []string{
	"trending",
	"entire homes",
	"iconic cities",
	"mountains",
	"castles",
	"amazing pools",
	"camping",
	"farms",
	"arctic",
	"beachfront",
	"desert",
	"islands",
	"lakefront",
	"tropical",
	"luxury",
}

func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// CategorySet normalizes the categories input to a set of zero-or-more
// strings regardless of submission shape: a lone string, an array, or
// nothing at all.
type CategorySet []string

func (cs *CategorySet) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*cs = NormalizeCategories(many)
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*cs = NormalizeCategories([]string{one})
	return nil
}

// NormalizeCategories drops empty values and duplicates, keeping first-seen
// order.
func NormalizeCategories(values []string) CategorySet {
	seen := make(map[string]bool, len(values))
	set := CategorySet{}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		set = append(set, v)
	}
	return set
}

type UsernameChange struct {
	NewUsername string `json:"username"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Credentials) FromJSON(reader io.Reader) error {
	d := json.NewDecoder(reader)
	return d.Decode(c)
}
