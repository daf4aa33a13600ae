package httpapi

import (
	"net/http"

	"github.com/stoop-politics/stoop/internal/buildinfo"
	"github.com/stoop-politics/stoop/internal/httpjson"
)

type jsonObject = map[string]any

func ref(name string) jsonObject {
	return jsonObject{"$ref": "#/components/schemas/" + name}
}

func jsonContent(schema jsonObject) jsonObject {
	return jsonObject{"application/json": jsonObject{"schema": schema}}
}

// op décrit une opération : réponse de succès typée, erreurs standard.
func op(summary string, okStatus string, okSchema jsonObject, errStatuses ...string) jsonObject {
	responses := jsonObject{}
	if okSchema == nil {
		responses[okStatus] = jsonObject{"description": "OK"}
	} else {
		responses[okStatus] = jsonObject{"description": "OK", "content": jsonContent(okSchema)}
	}
	for _, st := range errStatuses {
		responses[st] = jsonObject{"description": "Error", "content": jsonContent(ref("Error"))}
	}
	return jsonObject{"summary": summary, "responses": responses}
}

func withBody(o jsonObject, schema jsonObject) jsonObject {
	o["requestBody"] = jsonObject{"required": true, "content": jsonContent(schema)}
	return o
}

func admin(o jsonObject) jsonObject {
	o["security"] = []any{jsonObject{"bearer": []any{}}}
	if resp, ok := o["responses"].(jsonObject); ok {
		resp["401"] = jsonObject{"description": "Unauthorized", "content": jsonContent(ref("Error"))}
	}
	return o
}

func arrayOf(name string) jsonObject {
	return jsonObject{"type": "array", "items": ref(name)}
}

func object(props jsonObject, required ...string) jsonObject {
	o := jsonObject{"type": "object", "properties": props}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

var (
	str     = jsonObject{"type": "string"}
	boolean = jsonObject{"type": "boolean"}
	integer = jsonObject{"type": "integer"}
	number  = jsonObject{"type": "number", "format": "double"}
	instant = jsonObject{"type": "string", "format": "date-time"}
)

func openAPIDocument() jsonObject {
	schemas := jsonObject{
		"Error": object(jsonObject{"error": str}, "error"),
		"Episode": object(jsonObject{
			"id": str, "title": str, "summary": str, "audioUrl": str, "coverImageUrl": str,
			"isPublished": boolean, "publishedAt": instant, "durationSeconds": integer,
			"createdAt": instant, "updatedAt": instant,
		}, "id", "title", "audioUrl", "isPublished"),
		"EpisodeInput": object(jsonObject{
			"title": str, "summary": str, "audioUrl": str, "coverImageUrl": str, "durationSeconds": integer,
		}, "title", "audioUrl"),
		"Segment": object(jsonObject{
			"id": str, "episodeId": str, "content": str, "startTime": number, "endTime": number,
			"referenceLink": str, "referenceTitle": str, "displayOrder": integer,
		}, "id", "episodeId", "content", "displayOrder"),
		"SegmentInput": object(jsonObject{
			"content": str, "startTime": number, "endTime": number,
			"referenceLink": str, "referenceTitle": str, "displayOrder": integer,
		}, "content"),
		"Listen": object(jsonObject{
			"episode": ref("Episode"), "segments": arrayOf("Segment"), "startAt": number,
			"activeIndex": integer, "theme": jsonObject{"type": "string", "enum": []any{"morning", "afternoon", "evening"}},
			"subscriber": object(jsonObject{"email": str}),
		}),
		"Share": object(jsonObject{"t": number, "timestamp": str, "url": str}),
		"Subscriber": object(jsonObject{
			"id": str, "email": str, "subscribedAt": instant, "notificationsEnabled": boolean,
			"status":    jsonObject{"type": "string", "enum": []any{"active", "unsubscribed", "banned"}},
			"updatedAt": instant,
		}),
		"SubscriberCounts": object(jsonObject{"total": integer, "active": integer, "withNotifications": integer, "banned": integer}),
		"BroadcastResult": object(jsonObject{
			"success": boolean, "message": str, "totalSubscribers": integer, "sentCount": integer,
			"errorCount": integer, "partialErrors": jsonObject{"type": "array", "items": str},
		}),
		"Job": object(jsonObject{
			"id": str, "type": jsonObject{"type": "string", "enum": []any{"email.welcome", "notify.episode", "broadcast"}},
			"state":    jsonObject{"type": "string", "enum": []any{"queued", "running", "completed", "failed", "canceled"}},
			"progress": number, "createdAt": instant, "updatedAt": instant,
			"params": jsonObject{"type": "object", "additionalProperties": true},
			"result": jsonObject{"type": "object", "additionalProperties": true},
			"errorCode": str, "error": str,
		}, "id", "type", "state", "progress"),
		"InboxMessage": object(jsonObject{"id": str, "message": str, "createdAt": instant}, "id", "message", "createdAt"),
		"Settings": object(jsonObject{
			"siteName": str, "siteUrl": str, "senderEmail": str, "senderName": str, "signature": str,
			"sendIntervalMs": integer, "notifyOnPublish": boolean, "maxWorkers": integer,
		}),
	}

	paths := jsonObject{
		"/api/v1/health":       jsonObject{"get": op("Liveness", "200", nil)},
		"/api/v1/version":      jsonObject{"get": op("Build info", "200", nil)},
		"/api/v1/openapi.json": jsonObject{"get": op("This document", "200", nil)},
		"/api/v1/episodes":     jsonObject{"get": op("Published episodes, newest first", "200", arrayOf("Episode"), "500")},
		"/api/v1/episodes/{id}": jsonObject{
			"get": op("Listener view; id may be \"latest\", ?t= sets the start time", "200", ref("Listen"), "404"),
		},
		"/api/v1/episodes/{id}/active": jsonObject{"get": op("Active segment at ?t=", "200", nil, "400", "404")},
		"/api/v1/episodes/{id}/share":  jsonObject{"get": op("Shareable link for ?t= (and optional ?url=)", "200", ref("Share"), "400", "404")},
		"/api/v1/episodes/{id}/segments/{segmentID}/seek": jsonObject{
			"get": op("Seek time and link of a segment", "200", ref("Share"), "400", "404"),
		},
		"/api/v1/subscribe": jsonObject{"post": withBody(
			op("Subscribe or update preferences", "201", nil, "400", "403", "429"),
			object(jsonObject{"email": str, "notifyMe": boolean}, "email"),
		)},
		"/api/v1/verify-subscriber": jsonObject{"post": withBody(
			op("Recognize a returning subscriber", "200", nil, "400", "403", "404", "429"),
			object(jsonObject{"email": str}, "email"),
		)},
		"/api/v1/notifications": jsonObject{
			"get": op("Notification preference for ?email=", "200", nil, "400", "404", "429"),
			"post": withBody(
				op("Enable or disable notifications", "200", nil, "400", "403", "404", "429"),
				object(jsonObject{"email": str, "enabled": boolean}, "email", "enabled"),
			),
		},
		"/api/v1/unsubscribe": jsonObject{
			"get": op("Turn notifications off for ?email= (emailed unsubscribe link)", "200", nil, "400", "403", "404", "429"),
		},
		"/api/v1/notifications/health": jsonObject{"get": op("Notification pipeline health", "200", nil, "500")},
		"/api/v1/inbox": jsonObject{"post": withBody(
			op("Leave an anonymous question (at most 1000 characters)", "201", ref("InboxMessage"), "400", "429"),
			object(jsonObject{"message": str}, "message"),
		)},

		"/api/v1/admin/me": jsonObject{"get": admin(op("Current admin", "200", nil))},
		"/api/v1/admin/episodes": jsonObject{
			"get":  admin(op("All episodes, drafts included", "200", arrayOf("Episode"), "500")),
			"post": admin(withBody(op("Create a draft", "201", ref("Episode"), "400"), ref("EpisodeInput"))),
		},
		"/api/v1/admin/episodes/{id}": jsonObject{
			"get": admin(op("Episode with transcript", "200", nil, "404")),
			"put": admin(withBody(op("Update an episode", "200", ref("Episode"), "400", "404"), ref("EpisodeInput"))),
		},
		"/api/v1/admin/episodes/{id}/publish": jsonObject{"post": admin(op("Publish once", "200", nil, "404", "409"))},
		"/api/v1/admin/episodes/{id}/notify":  jsonObject{"post": admin(op("Queue new-episode notification", "202", ref("Job"), "400", "404"))},
		"/api/v1/admin/episodes/{id}/transcript": jsonObject{"put": admin(withBody(
			op("Replace the transcript", "200", arrayOf("Segment"), "400", "404"),
			object(jsonObject{"segments": arrayOf("SegmentInput")}, "segments"),
		))},
		"/api/v1/admin/segments/{id}": jsonObject{"patch": admin(withBody(
			op("Edit one field of a segment", "200", ref("Segment"), "400", "404"),
			object(jsonObject{
				"field": jsonObject{"type": "string", "enum": []any{"content", "reference_link", "reference_title"}},
				"value": str,
			}, "field", "value"),
		))},
		"/api/v1/admin/subscribers":       jsonObject{"get": admin(op("Subscribers (?filter=all|active|notifications&q=)", "200", arrayOf("Subscriber"), "400"))},
		"/api/v1/admin/subscribers/stats": jsonObject{"get": admin(op("Subscriber counts", "200", ref("SubscriberCounts"), "500"))},
		"/api/v1/admin/subscribers/{id}/toggle-notifications": jsonObject{
			"post": admin(op("Toggle notifications", "200", ref("Subscriber"), "404")),
		},
		"/api/v1/admin/subscribers/{id}/status": jsonObject{"put": admin(withBody(
			op("Change status", "200", ref("Subscriber"), "400", "404", "409"),
			object(jsonObject{"status": str}, "status"),
		))},
		"/api/v1/admin/subscribers/{id}": jsonObject{"delete": admin(op("Delete a subscriber", "204", nil, "404"))},
		"/api/v1/admin/broadcast": jsonObject{"post": admin(withBody(
			op("Email all subscribers with notifications (?async=1 queues a job)", "200", ref("BroadcastResult"), "400", "502", "503"),
			object(jsonObject{"subject": str, "message": str}, "subject", "message"),
		))},
		"/api/v1/admin/inbox":            jsonObject{"get": admin(op("Inbox messages, newest first (?limit=)", "200", arrayOf("InboxMessage"), "500"))},
		"/api/v1/admin/jobs":             jsonObject{"get": admin(op("Jobs", "200", arrayOf("Job"), "500"))},
		"/api/v1/admin/jobs/{id}":        jsonObject{"get": admin(op("Job", "200", ref("Job"), "404"))},
		"/api/v1/admin/jobs/{id}/cancel": jsonObject{"post": admin(op("Cancel a job", "200", ref("Job"), "404"))},
		"/api/v1/admin/settings": jsonObject{
			"get": admin(op("Settings", "200", ref("Settings"), "500")),
			"put": admin(withBody(op("Update settings", "200", ref("Settings"), "400"), ref("Settings"))),
		},
		"/api/v1/admin/events": jsonObject{"get": admin(op("Server-sent events (?topic= prefix)", "200", nil))},
	}

	return jsonObject{
		"openapi": "3.0.3",
		"info":    jsonObject{"title": "Stoop API", "version": buildinfo.Current().Version},
		"components": jsonObject{
			"schemas": schemas,
			"securitySchemes": jsonObject{
				"bearer": jsonObject{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
		},
		"paths": paths,
	}
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, openAPIDocument())
}
