package api

// OpenAPI tags.
const (
	tagReviews       = "Reviews"
	tagComments      = "Comments"
	tagLikes         = "Likes"
	tagLists         = "Lists"
	tagNotifications = "Notifications"
	tagInteractions  = "Interactions"
	tagHealth        = "Health"
)

// bearerAuth marks an operation as requiring a token in the OpenAPI document.
var bearerAuth = []map[string][]string{{"bearer": {}}}
