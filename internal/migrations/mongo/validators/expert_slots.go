package validators

import "go.mongodb.org/mongo-driver/bson"

var ExpertSlotsValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "slots"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"slots": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"date", "time", "state"},
					"properties": bson.M{
						"date": bson.M{
							"bsonType": "string",
							"pattern":  `^\d{4}-\d{2}-\d{2}$`,
						},
						"time": bson.M{
							"bsonType": "string",
							"pattern":  `^([01][0-9]|2[0-3]):[0-5][0-9]$`,
						},
						"state": bson.M{
							"enum": []string{"free", "reserved"},
						},
						"owner": bson.M{
							"bsonType":  "string",
							"maxLength": 64,
						},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
