package validators

import "go.mongodb.org/mongo-driver/bson"

var EventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"key",
			"seq",
			"type",
			"data",
			"event_id",
			"recorded_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"key": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"seq": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"marked-available",
					"unmarked-available",
					"participant-booked",
					"participant-canceled",
				},
			},

			// JSON payload bytes; stored opaque so wire tags alone govern decoding.
			"data": bson.M{
				"bsonType": "binData",
			},

			"event_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"recorded_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
