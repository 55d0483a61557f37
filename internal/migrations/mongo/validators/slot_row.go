package validators

import "go.mongodb.org/mongo-driver/bson"

var SlotRowValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"slot_id",
			"participant_id",
			"role",
			"status",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"slot_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"participant_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"role": bson.M{
				"bsonType": "string",
				"enum": []string{
					"student",
					"aircraft",
					"instructor",
				},
			},

			"booking_id": bson.M{
				"bsonType": "string",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"available",
					"booked",
				},
			},
		},
	},
}
