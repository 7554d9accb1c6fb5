// Package report renders human-facing output derived from the final
// item list. Nothing here writes back to the store.
package report

import (
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"

	"yt_mirror/internal/domain"
)

// galleryTemplate embeds one thumbnail/link per video plus a
// client-side player that shuffles through the gallery.
const galleryTemplate = `<head>
<style>#images{ text-align:center; margin:50px auto; }
#images a{margin:0px 20px; display:inline-block; text-decoration:none; color:black; }
.caption { width: 150px; height: 80px; overflow-y: auto; }
</style>
<meta charset="UTF-8">
</head>
<div id="images">
{{range .}}<a target="_blank" href="https://www.youtube.com/watch?v={{.VideoID}}"><img src="https://i.ytimg.com/vi/{{.VideoID}}/hqdefault.jpg" width="150px"><div class="caption">{{.Title}}</div></a>
{{end}}</div>

<center>
<button id="random" onclick="player.loadVideoById(get_random_ytid(0))">Next random video</button><br><br>
<div id="player"></div>
</center>

<script src="https://www.youtube.com/iframe_api"></script>

<script>
var player;

var anchors = document.getElementsByTagName("a");
var youtube_ids = [];
for (var i = 0; i < anchors.length; i++) {
	youtube_ids.push(anchors[i].href.replace("https://www.youtube.com/watch?v=", ""));
}

function get_random_ytid(recursion) {
	var item;
	if (youtube_ids.length) {
		var index = Math.floor(Math.random() * youtube_ids.length);
		item = youtube_ids[index];
		youtube_ids.splice(index, 1);
	} else {
		if (recursion) {
			alert("Cannot get IDs");
		} else {
			for (var i = 0; i < anchors.length; i++) {
				youtube_ids.push(anchors[i].href.replace("https://www.youtube.com/watch?v=", ""));
			}
			item = get_random_ytid(1);
		}
	}
	return item;
}

function onPlayerReady(event) {
	event.target.playVideo();
}

function onPlayerStateChange(event) {
	if (event.data === YT.PlayerState.ENDED) {
		player.loadVideoById(get_random_ytid(0));
	}
}

function onYouTubePlayerAPIReady() {
	player = new YT.Player("player", {
		height: "390",
		width: "640",
		videoId: get_random_ytid(0),
		playerVars: {
			"autoplay": 1,
			"controls": 1
		},
		events: {
			"onReady": onPlayerReady,
			"onStateChange": onPlayerStateChange
		}
	});
}
</script>
`

// GalleryWriter writes the static HTML gallery.
type GalleryWriter struct {
	tmpl   *template.Template
	logger *slog.Logger
}

func NewGalleryWriter(logger *slog.Logger) *GalleryWriter {
	return &GalleryWriter{
		tmpl:   template.Must(template.New("gallery").Parse(galleryTemplate)),
		logger: logger.With("component", "gallery"),
	}
}

// Write renders the gallery for the given entries to path, creating
// parent directories as needed.
func (g *GalleryWriter) Write(path string, entries []domain.ListingEntry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gallery file: %w", err)
	}
	defer f.Close()

	if err := g.tmpl.Execute(f, entries); err != nil {
		return fmt.Errorf("render gallery: %w", err)
	}

	g.logger.Info("gallery written", "path", path, "videos", len(entries))

	return nil
}
