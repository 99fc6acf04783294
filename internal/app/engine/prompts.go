package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// Reply keyboards sent as hints alongside prompts. The transport decides
// how to render them.
var (
	commandKeyboard = [][]string{
		{"/habits", "/manual", "/dream", "/thoughts"},
		{"/help", "/cancel"},
		{"/update_config", "/set_sheet"},
	}
	dateKeyboard = [][]string{
		{"Today", "Yesterday", "Custom Date"},
		{"Cancel"},
	}
	yesNoKeyboard = [][]string{
		{"Yes", "No"},
		{"Cancel"},
	}
)

const welcomeSetupText = "Welcome to the Habit Tracker Bot!\n\n" +
	"Before using other commands, please complete the setup:\n" +
	"1️⃣ Create a new spreadsheet.\n" +
	"2️⃣ Share it with the bot's service account email.\n" +
	"3️⃣ Get the Sheet ID from the URL (the string between '/d/' and '/edit').\n" +
	"4️⃣ Link your sheet using: /set_sheet <your_sheet_id>\n" +
	"5️⃣ Update the configuration using: /update_config (follow the example provided).\n\n" +
	"After completing these steps, you can use other commands."

const welcomeBackText = "Welcome back! You can now use the bot commands."

const helpText = "Habit Tracker Bot Help:\n" +
	"- /start: Start the bot and get a welcome message.\n" +
	"- /habits: Begin tracking your habits by describing your day.\n" +
	"- /manual: Manually input your habits in JSON format.\n" +
	"- /dream: Record your dreams and save them to a separate sheet.\n" +
	"- /thoughts: Record your thoughts and save them to a separate sheet.\n" +
	"- /cancel: Cancel the current habit tracking process.\n" +
	"- /help: Show this help message.\n" +
	"- /update_config: Update the bot configuration.\n" +
	"- /set_sheet: Link your personal sheet (see instructions in /start).\n\n" +
	"After initiating habit tracking with /habits:\n" +
	"1. Choose the date for your entry.\n" +
	"2. Provide a description of your day, including the habits listed.\n" +
	"3. The bot will extract your habits and present them for confirmation.\n" +
	"4. If the data is correct, reply with 'Yes' to save it.\n" +
	"5. If corrections are needed, reply with 'No' and provide corrections in text or voice."

const (
	cancelledText    = "Your current habit tracking process has been cancelled."
	setupNeededText  = "Please complete initial setup first:\nUse /set_sheet and /update_config."
	linkSheetFirst   = "Please link your Google Sheet first using /set_sheet."
	askDateText      = "For which date would you like to record your habits?"
	askCustomDate    = "Please enter the date in YYYY-MM-DD format."
	badDateOption    = "Invalid option. Please select 'Today', 'Yesterday', or 'Custom Date'."
	badDateFormat    = "Invalid date format. Please enter the date in YYYY-MM-DD format."
	badVoiceText     = "Sorry, I couldn't process your voice message. Please try again."
	extractFailText  = "Sorry, there was an error processing your input. Please try again later."
	editFailText     = "Sorry, there was an error processing your corrections. Please try again later."
	yesOrNoText      = "Please reply with 'Yes' or 'No'."
	askCorrections   = "Please describe the corrections you'd like to make, either by text or voice message."
	askManualJSON    = "Please input your habits in JSON format."
	configSavedText  = "Configuration has been updated and saved successfully! 🎉"
	appendedText     = "Your habit data has been appended to your Google Sheet."
	appendFailedText = "⚠️ Failed to append data to your Google Sheet. Please ensure your sheet is shared correctly."
	aggregateWarning = "Your entry was saved, but the daily summary could not be refreshed."
	missingSheetArg  = "⚠️ Please provide a Sheet ID. Example:\n/set_sheet <your_sheet_id>"
	unknownText      = "I didn't understand that. Use /help to see available commands."
)

func inputPrompt(date string, cfg domain.UserConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please describe your day for %s, either by text or voice message.\n\n", date)
	b.WriteString("Please include the following habits:\n")
	for _, name := range cfg.HabitNames() {
		fmt.Fprintf(&b, "- *%s*: %s\n", name, cfg.Habits[name].Description())
	}
	return b.String()
}

func extractedPrompt(fields map[string]any) string {
	return fmt.Sprintf("Here is the extracted data:\n```json\n%s\n```\nIs this correct?", renderJSON(fields))
}

func correctedPrompt(fields map[string]any) string {
	return fmt.Sprintf("Updated data:\n```json\n%s\n```\nIs this correct now?", renderJSON(fields))
}

func notePrompt(kind domain.NoteKind, text string) string {
	if kind == domain.NoteThoughts {
		return fmt.Sprintf("Here are your thoughts:\n\n%q\n\nDo you want to save it?", text)
	}
	return fmt.Sprintf("Here is your dream description:\n\n%q\n\nDo you want to save it?", text)
}

func noteCorrectedPrompt(kind domain.NoteKind, text string) string {
	if kind == domain.NoteThoughts {
		return fmt.Sprintf("Updated thoughts:\n\n%q\n\nIs this correct now?", text)
	}
	return fmt.Sprintf("Updated dream description:\n\n%q\n\nIs this correct now?", text)
}

func noteAskText(kind domain.NoteKind) string {
	if kind == domain.NoteThoughts {
		return "Please share your thoughts, either by text or voice message."
	}
	return "Please describe your dream, either by text or voice message."
}

func noteAskCorrection(kind domain.NoteKind) string {
	if kind == domain.NoteThoughts {
		return "Please provide the corrected thoughts, either by text or voice message."
	}
	return "Please provide the corrected dream description, either by text or voice message."
}

func noteSavedText(kind domain.NoteKind) string {
	if kind == domain.NoteThoughts {
		return "Your thoughts have been saved successfully!"
	}
	return "Your dream has been saved successfully!"
}

func noteFailedText(kind domain.NoteKind) string {
	if kind == domain.NoteThoughts {
		return "Failed to save your thoughts. Please check if your Google Sheet is properly linked."
	}
	return "Failed to save your dream. Please check if your Google Sheet is properly linked."
}

func configPrompt(cfg *domain.UserConfig) string {
	if cfg == nil || len(cfg.Habits) == 0 {
		return "No configuration found. Here's an example to get you started:\n" +
			exampleConfigJSON +
			"\n\nPlease send me your updated configuration in JSON format."
	}
	raw, _ := json.MarshalIndent(cfg, "", "    ")
	return "Here is your current configuration:\n" + string(raw) +
		"\n\nSend me the updated configuration in JSON format."
}

func sheetLinkedText(sheetID string) string {
	return fmt.Sprintf("✅ Google Sheet linked successfully! Sheet ID: %s\n"+
		"Now, please update your configuration using /update_config.", sheetID)
}

func renderJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

const exampleConfigJSON = `{
    "habits": {
        "sleep_hours": {
            "type": "number",
            "description": "How many hours did you sleep?",
            "minimum": 0,
            "maximum": 24
        },
        "exercise": {
            "type": "string",
            "description": "What exercise did you do today?"
        },
        "mood": {
            "type": "string",
            "description": "How was your mood today?",
            "enum": ["bad", "ok", "good"]
        }
    },
    "reminder_time": "21:00",
    "timezone": "UTC"
}`
