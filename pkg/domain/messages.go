package domain

const (
	HelpMessage = "Hello! I am your AI+Music Telegram Bot.\n\n" +
		"Commands:\n" +
		"/play <song name or YouTube URL> - Play music in group voice chat\n" +
		"/stop - Stop music playback\n" +
		"/pause - Pause music\n" +
		"/resume - Resume music\n" +
		"/chat <your message> - Chat with AI\n\n" +
		"Add me to a group and start a voice chat to play music!"

	PlayUsageMessage   = "Please provide a song name or YouTube URL to play."
	ChatUsageMessage   = "Please provide a message to chat with AI."
	FetchFailedMessage = "Failed to download the audio."
	PlayingMessage     = "▶️ Playing: %s"
	PlayFailedMessage  = "Error playing music: %v"
	StoppedMessage     = "⏹ Stopped music playback."
	PausedMessage      = "⏸ Music paused."
	ResumedMessage     = "▶️ Music resumed."
	AssistantApology   = "Sorry, I couldn't process your request."
	GroupOnlyMessage   = "This command works only in group chats."
	PrivateOnlyMessage = "This command works only in a private chat with me."
)
