package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// DemoPassword is the password of every seeded demo user.
const DemoPassword = "password123"

var (
	koreanCities = []string{"Seoul", "Busan", "Incheon", "Daegu", "Daejeon", "Gwangju", "Jeonju", "Gyeongju", "Gangneung", "Jeju"}
	transports   = []string{"KTX", "Bus", "Car", "Flight", "Ferry"}
	budgets      = []string{"50,000-100,000", "100,000-200,000", "200,000-400,000", "400,000+"}
)

// DemoSeeder fills missing tables with deterministic fake data for users*1 users, users*2
// posts, users listings and users*2 comments. Ids are consistent across tables as long as
// all of them are seeded together.
func DemoSeeder(seed int64, users int) Seeder {
	if users <= 0 {
		users = 5
	}
	return func(schema Schema) []Row {
		f := gofakeit.New(seed + int64(len(schema.Name)))
		base := time.Now().Add(-30 * 24 * time.Hour)
		stamp := func() string {
			return f.DateRange(base, time.Now()).Format(models.TimeLayout)
		}

		var rows []Row
		switch schema.Name {
		case TableUsers:
			for id := 1; id <= users; id++ {
				name := strings.ToLower(f.Username())
				rows = append(rows, Row{
					"user_id":         strconv.Itoa(id),
					"username":        fmt.Sprintf("%s%d", name, id),
					"password_sha256": utils.HashPassword(DemoPassword),
					"email":           fmt.Sprintf("%s%d@%s", name, id, f.DomainName()),
					"country":         f.Country(),
					"city_in_korea":   f.RandomString(koreanCities),
					"joined_at":       stamp(),
				})
			}
		case TablePosts:
			for id := 1; id <= users*2; id++ {
				rows = append(rows, Row{
					"post_id":    strconv.Itoa(id),
					"user_id":    strconv.Itoa(f.Number(1, users)),
					"content":    f.Sentence(12),
					"tags":       strings.Join([]string{f.RandomString(koreanCities), f.Word()}, ","),
					"created_at": stamp(),
					"likes":      "0",
					"reposts":    strconv.Itoa(f.Number(0, 5)),
				})
			}
		case TableTravelMates:
			for id := 1; id <= users; id++ {
				from := f.DateRange(time.Now(), time.Now().Add(60*24*time.Hour))
				rows = append(rows, Row{
					"mate_id":             strconv.Itoa(id),
					"user_id":             strconv.Itoa(f.Number(1, users)),
					"title":               f.Sentence(4),
					"departure_city":      f.RandomString(koreanCities),
					"destination_city":    f.RandomString(koreanCities),
					"date_from":           from.Format(models.DateLayout),
					"date_to":             from.Add(time.Duration(f.Number(1, 7)) * 24 * time.Hour).Format(models.DateLayout),
					"budget_range_krw":    f.RandomString(budgets),
					"preferred_transport": f.RandomString(transports),
					"contact":             f.Email(),
					"notes":               f.Sentence(8),
					"status":              models.StatusOpen,
					"created_at":          stamp(),
					"max_people":          strconv.Itoa(f.Number(2, 5)),
					"current_people":      "0",
					"participants":        "",
				})
			}
		case TableComments:
			for id := 1; id <= users*2; id++ {
				rows = append(rows, Row{
					"comment_id": strconv.Itoa(id),
					"post_id":    strconv.Itoa(f.Number(1, users*2)),
					"user_id":    strconv.Itoa(f.Number(1, users)),
					"content":    f.Sentence(6),
					"created_at": stamp(),
				})
			}
		}
		return rows
	}
}
