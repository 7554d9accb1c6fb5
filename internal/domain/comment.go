package domain

// Comment is a persisted user comment. Votes is a snapshot taken at
// fetch time; rows are never updated once written.
type Comment struct {
	ID         string `db:"id"`
	VideoID    string `db:"video_id"`
	Text       string `db:"text"`
	Author     string `db:"author"`
	Votes      int    `db:"votes"`
	TimeParsed int64  `db:"time_parsed"`
}

// RawComment is a comment record as delivered by the comment source,
// before vote coercion. Votes holds whatever the source produced:
// a decimal string, an empty string when the field was null or
// missing, or free text that fails to parse.
type RawComment struct {
	ID         string
	Text       string
	Author     string
	Votes      string
	TimeParsed int64
}
