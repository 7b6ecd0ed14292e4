package main

import "talkwave/internal/app"

// @title           TalkWave API
// @version         1.0
// @description     Group-chat backend: REST API over a document store with a websocket room relay for real-time delivery.
// @BasePath        /
func main() {
	app.Run()
}
