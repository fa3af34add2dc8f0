package domain

// PlaybackSession binds a group chat to the audio file it is currently playing.
type PlaybackSession struct {
	ChatID        int64  `json:"chat_id"`
	AudioFilePath string `json:"audio_file_path"`
}
