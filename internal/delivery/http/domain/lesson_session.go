package domain

var (
	LESSON_UPSERT_SUCCESS = "Lesson saved"
	LESSON_UPSERT_FAILED  = "Failed to save lesson"
	LESSON_GET_SUCCESS    = "Lesson retrieved"
	LESSON_GET_FAILED     = "Failed to retrieve lesson"
	LESSON_LIST_SUCCESS   = "Lessons retrieved"
	LESSON_LIST_FAILED    = "Failed to retrieve lessons"

	SESSION_OPEN_SUCCESS     = "Session opened"
	SESSION_OPEN_FAILED      = "Failed to open session"
	SESSION_GET_SUCCESS      = "Session state retrieved"
	SESSION_GET_FAILED       = "Failed to retrieve session state"
	SESSION_SUBMIT_SUCCESS   = "Answer submitted"
	SESSION_SUBMIT_FAILED    = "Failed to submit answer"
	SESSION_ADVANCE_SUCCESS  = "Moved to next step"
	SESSION_ADVANCE_FAILED   = "Failed to move to next step"
	SESSION_RETREAT_SUCCESS  = "Moved to previous step"
	SESSION_RETREAT_FAILED   = "Failed to move to previous step"
	SESSION_NAVIGATE_SUCCESS = "Moved to step"
	SESSION_NAVIGATE_FAILED  = "Failed to move to step"
	SESSION_REDO_SUCCESS     = "Session restarted"
	SESSION_REDO_FAILED      = "Failed to restart session"
	SESSION_CLOSE_SUCCESS    = "Session closed"
	SESSION_CLOSE_FAILED     = "Failed to close session"
	SESSION_ANSWERS_SUCCESS  = "Session answers retrieved"
	SESSION_ANSWERS_FAILED   = "Failed to retrieve session answers"
)
