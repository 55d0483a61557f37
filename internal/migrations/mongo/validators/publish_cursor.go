package validators

import "go.mongodb.org/mongo-driver/bson"

var PublishCursorValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"key",
			"seq",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"key": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 260,
			},

			"seq": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},
		},
	},
}
