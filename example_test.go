package apiforms_test

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/SimonDaKappa/go-apiforms"
)

var (
	songForm = apiforms.NewFormType("SongForm").
		Field("title", apiforms.NewCharField(apiforms.CharFieldOpts{FieldOpts: apiforms.FieldOpts{Required: true}})).
		Field("duration", apiforms.NewDurationField(apiforms.FieldOpts{Required: true})).
		MustBuild()

	albumForm = apiforms.NewFormType("AlbumForm").
		Field("title", apiforms.NewCharField(apiforms.CharFieldOpts{FieldOpts: apiforms.FieldOpts{Required: true}, MaxLength: 100})).
		Field("year", apiforms.NewIntegerField(apiforms.IntegerFieldOpts{})).
		Field("songs", apiforms.NewFormFieldList(songForm, apiforms.FormFieldListOpts{})).
		MustBuild()
)

func Example() {
	body := []byte(`{
		"title": "Drama",
		"songs": [
			{"title": "Machine Messiah", "duration": "10:27"},
			{"duration": "3:29"}
		]
	}`)

	form, err := apiforms.FromBytes(albumForm, "application/json", body, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, e := range form.Errors() {
		fmt.Println(e)
	}
	// Output:
	// songs[1].title: This field is required. (required)
}

func ExampleForm_CleanedData() {
	form := apiforms.NewForm(songForm, map[string]any{
		"title":    "  Roundabout ",
		"duration": "8:35",
	}, nil)

	if form.IsValid() {
		data := form.CleanedData()
		fmt.Printf("%q %v\n", data["title"], data["duration"])
	}
	// Output:
	// "Roundabout" 8m35s
}

func ExampleForm_Populate() {
	type Album struct {
		Title string `form:"title"`
		Year  int    `form:"year"`
	}

	form := apiforms.NewForm(albumForm, map[string]any{"title": "Fragile", "year": 1971}, nil)
	if !form.IsValid() {
		return
	}

	var album Album
	if err := form.Populate(&album); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%+v\n", album)
	// Output:
	// {Title:Fragile Year:1971}
}

func ExampleValidationErrors_Records() {
	form := apiforms.NewForm(albumForm, map[string]any{
		"songs": []any{map[string]any{"title": "Heart of the Sunrise", "duration": "later"}},
	}, nil)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(form.Errors().Records())
	// Output:
	// [
	//   {
	//     "code": "required",
	//     "message": "This field is required.",
	//     "path": [
	//       "title"
	//     ]
	//   },
	//   {
	//     "code": "invalid",
	//     "message": "Enter a valid duration.",
	//     "path": [
	//       "songs",
	//       0,
	//       "duration"
	//     ]
	//   }
	// ]
}

func ExampleNewFormType_clean() {
	passwordForm := apiforms.NewFormType("PasswordForm").
		Field("password", apiforms.NewCharField(apiforms.CharFieldOpts{FieldOpts: apiforms.FieldOpts{Required: true}, MinLength: 8})).
		Field("confirm", apiforms.NewCharField(apiforms.CharFieldOpts{FieldOpts: apiforms.FieldOpts{Required: true}})).
		Clean(func(f *apiforms.Form, data map[string]any) (map[string]any, error) {
			if data["password"] != data["confirm"] {
				return nil, apiforms.NewValidationError("mismatch", "Passwords do not match.")
			}
			return data, nil
		}).
		MustBuild()

	form := apiforms.NewForm(passwordForm, map[string]any{"password": "correct horse", "confirm": "battery staple"}, nil)
	fmt.Println(form.Errors())
	// Output:
	// $body: Passwords do not match. (mismatch)
}
