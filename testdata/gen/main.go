// Command gen writes the sample users tables used in the dqexpr examples.
package main

import (
	"log"
	"os"
	"time"

	goavro "github.com/linkedin/goavro/v2"
	parquet "github.com/parquet-go/parquet-go"
)

type User struct {
	Name   string `parquet:"name"`
	Age    *int32 `parquet:"age,optional"`
	City   string `parquet:"city"`
	Joined int32  `parquet:"joined,date"`
}

const avroSchema = `{
  "type": "record",
  "name": "User",
  "fields": [
    {"name": "name", "type": "string"},
    {"name": "age", "type": ["null", "int"]},
    {"name": "city", "type": "string"},
    {"name": "joined", "type": {"type": "int", "logicalType": "date"}}
  ]
}`

func age(n int32) *int32 { return &n }

// day returns the date as days since the Unix epoch.
func day(y int, m time.Month, d int) int32 {
	return int32(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

var users = []User{
	{"Alice", age(30), "NY", day(2021, 3, 14)},
	{"Bob", age(25), "LA", day(2022, 11, 2)},
	{"Charlie", nil, "NY", day(2020, 1, 31)},
	{"Diana", age(28), "SF", day(2023, 6, 30)},
	{"Eve", age(22), "LA", day(2024, 2, 29)},
	{"Frank", age(40), "NY", day(2019, 8, 1)},
}

func writeParquet(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := parquet.NewWriter(f)
	for _, u := range users {
		if err := w.Write(u); err != nil {
			return err
		}
	}
	return w.Close()
}

func writeAvro(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := goavro.NewOCFWriter(goavro.OCFConfig{W: f, Schema: avroSchema})
	if err != nil {
		return err
	}
	records := make([]interface{}, len(users))
	for i, u := range users {
		var a interface{}
		if u.Age != nil {
			a = goavro.Union("int", *u.Age)
		}
		records[i] = map[string]interface{}{
			"name":   u.Name,
			"age":    a,
			"city":   u.City,
			"joined": time.Unix(int64(u.Joined)*86400, 0).UTC(),
		}
	}
	return w.Append(records)
}

func main() {
	if err := writeParquet("testdata/users.parquet"); err != nil {
		log.Fatal(err)
	}
	if err := writeAvro("testdata/users.avro"); err != nil {
		log.Fatal(err)
	}
}
